package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agnivade/levenshtein"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_TieGoesToFirst(t *testing.T) {
	name, err := Resolve("Abx", []string{"Abc", "Abd", "Axz"})
	require.NoError(t, err)
	assert.Equal(t, "Abc", name)

	v, err := NewVocabulary([]string{"Abd", "Abc", "Axz"})
	require.NoError(t, err)
	assert.Equal(t, Match{Name: "Abd", Distance: 1, Index: 0}, v.Resolve("Abx"))
}

func TestResolve_ExactMatch(t *testing.T) {
	v, err := NewVocabulary([]string{"Gazzuz", "Gazuzu", "Gazuzuu"})
	require.NoError(t, err)

	m := v.Resolve("Gazuzu")
	assert.Equal(t, "Gazuzu", m.Name)
	assert.Zero(t, m.Distance)
	assert.Equal(t, 1, m.Index)
}

func TestResolve_Table(t *testing.T) {
	vocab := []string{"Skrolk", "Gazuzu", "Grim Grom", "Dharak"}
	tests := []struct {
		candidate string
		want      string
		distance  int
	}{
		{"Skro1k", "Skrolk", 1},
		{"Gaz uzu", "Gazuzu", 1},
		{"GrimGrom", "Grim Grom", 1},
		{"harak", "Dharak", 1},
		{"", "Skrolk", 6},
	}
	v, err := NewVocabulary(vocab)
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			m := v.Resolve(tt.candidate)
			assert.Equal(t, tt.want, m.Name)
			assert.Equal(t, tt.distance, m.Distance)
		})
	}
}

func TestResolve_NormalizesUnicode(t *testing.T) {
	// Precomposed in the vocabulary, decomposed in the transcript.
	v, err := NewVocabulary([]string{"Kex", "K\u00e9ra"})
	require.NoError(t, err)

	m := v.Resolve("Ke\u0301ra")
	assert.Equal(t, "K\u00e9ra", m.Name)
	assert.Zero(t, m.Distance)
}

func TestResolve_KeepsEntriesVerbatim(t *testing.T) {
	name, err := Resolve("x", []string{""})
	require.NoError(t, err)
	assert.Empty(t, name)

	name, err = Resolve("K\u00e9ra", []string{"Kex", " Ke\u0301ra"})
	require.NoError(t, err)
	assert.Equal(t, " Ke\u0301ra", name)

	name, err = Resolve("Abc", []string{"", "Abc", "Abc"})
	require.NoError(t, err)
	assert.Equal(t, "Abc", name)
}

func TestNewVocabulary(t *testing.T) {
	_, err := NewVocabulary(nil)
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = NewVocabulary([]string{"", "  "})
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = Resolve("Abc", nil)
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	v, err := NewVocabulary([]string{" Abc ", "Abd", "Abc", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Abc", "Abd"}, v.Names())
	assert.Equal(t, 2, v.Len())

	names := v.Names()
	names[0] = "mutated"
	assert.Equal(t, "Abc", v.Names()[0])
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "names.txt")
	content := "\uFEFFGazuzu\n# bosses\n\nSkrolk\r\n  Dharak  \nGazuzu\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gazuzu", "Skrolk", "Dharak"}, v.Names())
}

func TestLoadVocabulary_Errors(t *testing.T) {
	_, err := LoadVocabulary("")
	require.Error(t, err)

	_, err = LoadVocabulary(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing\n\n"), 0o600))
	_, err = LoadVocabulary(path)
	require.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestResolve_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	word := gen.AlphaString()

	properties.Property("a vocabulary member resolves to itself", prop.ForAll(
		func(a, b string) bool {
			v, err := NewVocabulary([]string{"Anchor", a, b})
			if err != nil {
				return false
			}
			for _, n := range v.Names() {
				if m := v.Resolve(n); m.Name != n || m.Distance != 0 {
					return false
				}
			}
			return true
		},
		word, word,
	))

	properties.Property("no other name is strictly closer, and earlier names are not as close", prop.ForAll(
		func(c, a, b string) bool {
			v, err := NewVocabulary([]string{"Anchor", a, b})
			if err != nil {
				return false
			}
			m := v.Resolve(c)
			names := v.Names()
			for i, n := range names {
				d := levenshtein.ComputeDistance(c, n)
				if d < m.Distance || (i < m.Index && d == m.Distance) {
					return false
				}
			}
			return true
		},
		word, word, word,
	))

	properties.TestingRun(t)
}

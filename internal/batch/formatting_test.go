package batch

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []FileResult {
	return []FileResult{
		{File: "/cap/a.png", Status: StatusSighting, Name: "Gazuzu", Transcript: "Gazuzu"},
		{File: "/cap/b.png", Status: StatusSighting, Name: "Dharak", Transcript: "Dharac", Distance: 1},
		{File: "/cap/c.png", Status: StatusDropped, Transcript: "xx"},
		{File: "/cap/d.png", Status: StatusFailed, Stage: "ocr", Error: "OCR call timed out"},
	}
}

func TestFormatBatchResults_Text(t *testing.T) {
	output, err := formatBatchResults(sampleResults(), "text")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "/cap/a.png: Gazuzu", lines[0])
	assert.Equal(t, `/cap/b.png: Dharak (read "Dharac", distance 1)`, lines[1])
	assert.Equal(t, `/cap/c.png: - (noise "xx")`, lines[2])
	assert.Equal(t, "/cap/d.png: ! ocr failed: OCR call timed out", lines[3])
}

func TestFormatBatchResults_JSON(t *testing.T) {
	output, err := formatBatchResults(sampleResults(), "json")
	require.NoError(t, err)

	var decoded struct {
		Viewports []FileResult `json:"viewports"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, sampleResults(), decoded.Viewports)
	assert.Contains(t, output, `"status": "dropped"`)
}

func TestFormatBatchResults_JSONEmpty(t *testing.T) {
	output, err := formatBatchResults(nil, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"viewports": []}`, output)
}

func TestFormatBatchResults_CSV(t *testing.T) {
	output, err := formatBatchResults(sampleResults(), "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"file", "status", "name", "transcript", "distance", "error"}, rows[0])
	assert.Equal(t, []string{"/cap/b.png", "sighting", "Dharak", "Dharac", "1", ""}, rows[2])
	assert.Equal(t, []string{"/cap/c.png", "dropped", "", "xx", "", ""}, rows[3])
	assert.Equal(t, "OCR call timed out", rows[4][5])
}

func TestFormatBatchResults_UnknownFormatFallsBackToText(t *testing.T) {
	output, err := formatBatchResults(sampleResults()[:1], "yaml")
	require.NoError(t, err)
	assert.Equal(t, "/cap/a.png: Gazuzu\n", output)
}

func TestFormatBatchResults_EmptyText(t *testing.T) {
	output, err := formatBatchResults(nil, "text")
	require.NoError(t, err)
	assert.Empty(t, output)
}

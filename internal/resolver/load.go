package resolver

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LoadVocabulary reads one name per line. A UTF-8 BOM is stripped; blank
// lines and lines starting with '#' are skipped.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return nil, errors.New("vocabulary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: Opening user-provided vocabulary file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Error closing vocabulary file", "path", path, "error", err)
		}
	}()

	scanner := bufio.NewScanner(f)
	names := make([]string, 0, 256)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading vocabulary: %w", err)
	}

	v, err := NewVocabulary(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return v, nil
}

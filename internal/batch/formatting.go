package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// formatBatchResults formats per-file results as text, json or csv.
// Unknown formats fall back to text.
func formatBatchResults(results []FileResult, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(results)
	case "csv":
		return formatCSV(results)
	default:
		return formatText(results), nil
	}
}

func formatJSON(results []FileResult) (string, error) {
	out := struct {
		Viewports []FileResult `json:"viewports"`
	}{Viewports: results}
	if out.Viewports == nil {
		out.Viewports = []FileResult{}
	}
	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func formatCSV(results []FileResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"file", "status", "name", "transcript", "distance", "error"}); err != nil {
		return "", err
	}
	for _, r := range results {
		distance := ""
		if r.Status == StatusSighting {
			distance = strconv.Itoa(r.Distance)
		}
		if err := writer.Write([]string{r.File, r.Status, r.Name, r.Transcript, distance, r.Error}); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(results []FileResult) string {
	var output strings.Builder
	for _, r := range results {
		switch r.Status {
		case StatusSighting:
			fmt.Fprintf(&output, "%s: %s", r.File, r.Name)
			if r.Distance > 0 {
				fmt.Fprintf(&output, " (read %q, distance %d)", r.Transcript, r.Distance)
			}
			output.WriteString("\n")
		case StatusDropped:
			fmt.Fprintf(&output, "%s: - (noise %q)\n", r.File, r.Transcript)
		case StatusFailed:
			fmt.Fprintf(&output, "%s: ! %s failed: %s\n", r.File, r.Stage, r.Error)
		}
	}
	return output.String()
}

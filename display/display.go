// Package display renders analysis reports for the terminal and as JSON.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aschepis/mythra/analyze"
)

// Render formats a report as styled terminal text: a run summary followed
// by per-unit findings and any failures.
func Render(report *analyze.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Gas Optimization Report"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("run %s, model %s", report.RunID, report.Model)))
	b.WriteString("\n\n")

	completed := report.Completed()
	failures := report.Failures()
	b.WriteString(fmt.Sprintf("%d file(s) analyzed, %d finding(s)",
		len(completed), report.TotalFindings()))
	if len(failures) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf(", %d failed", len(failures))))
	}
	b.WriteString("\n")

	for _, res := range completed {
		b.WriteString("\n")
		b.WriteString(unitStyle.Render(res.Unit))
		if res.InputTokens > 0 || res.OutputTokens > 0 {
			b.WriteString(subtleStyle.Render(
				fmt.Sprintf("  (%d in / %d out tokens)", res.InputTokens, res.OutputTokens)))
		}
		b.WriteString("\n")

		if len(res.Findings) == 0 {
			b.WriteString(subtleStyle.Render("  no optimizations found"))
			b.WriteString("\n")
			continue
		}
		for i, f := range res.Findings {
			b.WriteString(renderFinding(i+1, f))
		}
	}

	for _, res := range failures {
		b.WriteString("\n")
		b.WriteString(unitStyle.Render(res.Unit))
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  analysis failed: " + res.Error))
		b.WriteString("\n")
	}

	return b.String()
}

func renderFinding(n int, f analyze.Finding) string {
	var b strings.Builder

	header := fmt.Sprintf("  %d. %s", n, f.Description)
	b.WriteString(findingStyle.Render(header))
	if f.StartLine > 0 {
		loc := fmt.Sprintf(" (lines %d-%d)", f.StartLine, f.EndLine)
		if f.EndLine <= f.StartLine {
			loc = fmt.Sprintf(" (line %d)", f.StartLine)
		}
		b.WriteString(subtleStyle.Render(loc))
	}
	b.WriteString("\n")

	if f.EstimatedGasSaved != "" {
		b.WriteString(gasStyle.Render("     estimated gas saved: " + f.EstimatedGasSaved))
		b.WriteString("\n")
	}
	if f.SuggestedChange != "" {
		for _, line := range strings.Split(strings.TrimRight(f.SuggestedChange, "\n"), "\n") {
			b.WriteString(codeStyle.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("     safety: " + f.SafetyRationale)
	b.WriteString("\n")

	return b.String()
}

// jsonReport wraps a report with generation metadata for machine output.
type jsonReport struct {
	RunID       string                         `json:"run_id"`
	Model       string                         `json:"model"`
	GeneratedAt time.Time                      `json:"generated_at"`
	Units       []string                       `json:"units"`
	Results     map[string]*analyze.UnitResult `json:"results"`
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *analyze.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		RunID:       report.RunID,
		Model:       report.Model,
		GeneratedAt: time.Now().UTC(),
		Units:       report.Units,
		Results:     report.Results,
	})
}

package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aschepis/mythra/analyze"
)

func sampleReport() *analyze.Report {
	return &analyze.Report{
		RunID: "run-123",
		Model: "gpt-4o",
		Units: []string{"a.sol", "b.sol"},
		Results: map[string]*analyze.UnitResult{
			"a.sol": {
				Unit: "a.sol",
				Findings: []analyze.Finding{
					{
						Unit:              "a.sol",
						Description:       "Cache array length outside the loop",
						SuggestedChange:   "uint256 len = items.length;",
						EstimatedGasSaved: "~100 per iteration",
						SafetyRationale:   "Length does not change inside the loop",
						StartLine:         10,
						EndLine:           14,
					},
				},
				InputTokens:  1200,
				OutputTokens: 300,
			},
			"b.sol": {Unit: "b.sol"},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleReport())

	for _, want := range []string{
		"run-123",
		"gpt-4o",
		"a.sol",
		"Cache array length outside the loop",
		"lines 10-14",
		"~100 per iteration",
		"no optimizations found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestRenderFailure(t *testing.T) {
	report := &analyze.Report{
		RunID: "run-456",
		Model: "gpt-4o",
		Units: []string{"broken.sol"},
		Results: map[string]*analyze.UnitResult{
			"broken.sol": {Unit: "broken.sol", Error: "dispatch failed after 3 attempts"},
		},
	}

	out := Render(report)
	if !strings.Contains(out, "dispatch failed after 3 attempts") {
		t.Errorf("rendered report missing failure reason:\n%s", out)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded struct {
		RunID       string `json:"run_id"`
		Model       string `json:"model"`
		GeneratedAt string `json:"generated_at"`
		Units       []string
		Results     map[string]*analyze.UnitResult
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.RunID != "run-123" || decoded.Model != "gpt-4o" {
		t.Errorf("metadata not carried over: %+v", decoded)
	}
	if decoded.GeneratedAt == "" {
		t.Error("generated_at missing")
	}
	if len(decoded.Results["a.sol"].Findings) != 1 {
		t.Errorf("findings not serialized: %+v", decoded.Results["a.sol"])
	}
}

package analyze

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseFindingsStrictList(t *testing.T) {
	reply := `[
		{"description": "first", "safety_rationale": "safe a", "start_line": 1, "end_line": 2},
		{"description": "second", "safety_rationale": "safe b", "estimated_gas_saved": "200"},
		{"description": "third", "safety_rationale": "safe c", "start_line": "7"}
	]`

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(findings))
	}
	if findings[0].Description != "first" || findings[1].Description != "second" || findings[2].Description != "third" {
		t.Errorf("order not preserved: %+v", findings)
	}
	if findings[1].EstimatedGasSaved != "200" {
		t.Errorf("gas estimate lost: %+v", findings[1])
	}
	// Numeric strings for line numbers are tolerated.
	if findings[2].StartLine != 7 {
		t.Errorf("string line number not coerced: %+v", findings[2])
	}
}

func TestParseFindingsWrapperObject(t *testing.T) {
	reply := `{"optimizations": [{"description": "d", "safety_rationale": "s"}]}`

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	if len(findings) != 1 || findings[0].Description != "d" {
		t.Errorf("wrapper list not extracted: %+v", findings)
	}
}

func TestParseFindingsFencedReply(t *testing.T) {
	reply := "```json\n[{\"description\": \"d\", \"safety_rationale\": \"s\"}]\n```"

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("expected 1 finding, got %+v", findings)
	}
}

func TestParseFindingsEmbeddedInProse(t *testing.T) {
	reply := `Here are the optimizations I found:

[{"description": "pack storage slots", "safety_rationale": "layout change only"}]

Let me know if you need more detail.`

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	if len(findings) != 1 || findings[0].Description != "pack storage slots" {
		t.Errorf("prose-embedded list not extracted: %+v", findings)
	}
}

func TestParseFindingsDropsMalformed(t *testing.T) {
	reply := `[
		{"description": "good one", "safety_rationale": "safe"},
		{"description": "no rationale"},
		{"safety_rationale": "no description"}
	]`

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	if len(findings) != 1 || findings[0].Description != "good one" {
		t.Errorf("expected only the well-formed finding, got %+v", findings)
	}
}

func TestParseFindingsAllMalformed(t *testing.T) {
	reply := `[{"description": "no rationale"}]`

	_, err := ParseFindings(reply, zerolog.Nop())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestParseFindingsEmptyListIsClean(t *testing.T) {
	findings, err := ParseFindings("[]", zerolog.Nop())
	if err != nil {
		t.Fatalf("explicit empty list must not error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("expected zero findings, got %+v", findings)
	}
}

func TestParseFindingsGarbage(t *testing.T) {
	for _, reply := range []string{
		"",
		"I could not analyze this contract.",
		"{\"unexpected\": true}",
	} {
		_, err := ParseFindings(reply, zerolog.Nop())
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("reply %q: expected *ParseError, got %v", reply, err)
		}
	}
}

func TestParseFindingsNullFields(t *testing.T) {
	reply := `[{"description": "d", "safety_rationale": "s", "estimated_gas_saved": null, "start_line": null, "end_line": null}]`

	findings, err := ParseFindings(reply, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseFindings returned error: %v", err)
	}
	f := findings[0]
	if f.EstimatedGasSaved != "" || f.StartLine != 0 || f.EndLine != 0 {
		t.Errorf("null fields should be zero values: %+v", f)
	}
}

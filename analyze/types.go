package analyze

import (
	"github.com/samber/lo"
)

// SourceUnit is one analyzable piece of input, typically one .sol file.
// Units are immutable for the duration of a run.
type SourceUnit struct {
	// Name is the display name, usually the file base name.
	Name string
	// Path is the unit's identity within a run. For synthetic input (stdin,
	// tests) any unique string works.
	Path string
	Text string
}

// Finding is one gas-optimization suggestion extracted from a model reply.
type Finding struct {
	Unit              string `json:"unit,omitempty"`
	Description       string `json:"description"`
	SuggestedChange   string `json:"suggested_change,omitempty"`
	EstimatedGasSaved string `json:"estimated_gas_saved,omitempty"`
	SafetyRationale   string `json:"safety_rationale"`
	// StartLine and EndLine are 1-based lines in the original source.
	// Zero means the model gave no location.
	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`
}

// UnitResult records the outcome of analyzing one unit: either a list of
// findings (possibly empty, meaning nothing to optimize) or a failure.
type UnitResult struct {
	Unit     string    `json:"unit"`
	Findings []Finding `json:"findings,omitempty"`
	// Error holds the failure reason when the unit could not be analyzed.
	// A nil Error with zero findings means the analysis ran clean.
	Error string `json:"error,omitempty"`
	// Usage totals across all calls made for this unit.
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`

	err error
}

// Failed reports whether the unit's analysis failed. The string form is
// consulted too so results rebuilt from JSON keep their status.
func (r *UnitResult) Failed() bool {
	return r.err != nil || r.Error != ""
}

// Err returns the failure reason, nil for completed units.
func (r *UnitResult) Err() error {
	return r.err
}

// Report is the aggregate outcome of one analysis run. It contains one
// entry per submitted unit; no unit is silently dropped.
type Report struct {
	RunID string `json:"run_id"`
	Model string `json:"model"`
	// Units preserves submission order; Results is keyed by unit path.
	Units   []string               `json:"units"`
	Results map[string]*UnitResult `json:"results"`
}

// Completed returns the results of units that were analyzed successfully,
// in submission order.
func (r *Report) Completed() []*UnitResult {
	return lo.Filter(r.ordered(), func(res *UnitResult, _ int) bool {
		return !res.Failed()
	})
}

// Failures returns the results of units whose analysis failed, in
// submission order.
func (r *Report) Failures() []*UnitResult {
	return lo.Filter(r.ordered(), func(res *UnitResult, _ int) bool {
		return res.Failed()
	})
}

// TotalFindings counts findings across all completed units.
func (r *Report) TotalFindings() int {
	return lo.SumBy(r.Completed(), func(res *UnitResult) int {
		return len(res.Findings)
	})
}

func (r *Report) ordered() []*UnitResult {
	results := make([]*UnitResult, 0, len(r.Units))
	for _, unit := range r.Units {
		if res, ok := r.Results[unit]; ok {
			results = append(results, res)
		}
	}
	return results
}

package analyze

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ParseError reports that a reply was present but no usable findings could
// be extracted from it. Distinct from an empty finding list, which means
// the model found nothing to optimize.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// rawFinding is the JSON object shape the prompt asks the model to emit.
// Field types are deliberately tolerant: models emit numbers as strings,
// strings as numbers, and null where we expect either.
type rawFinding struct {
	Description       flexString `json:"description"`
	SuggestedChange   flexString `json:"suggested_change"`
	EstimatedGasSaved flexString `json:"estimated_gas_saved"`
	SafetyRationale   flexString `json:"safety_rationale"`
	StartLine         flexInt    `json:"start_line"`
	EndLine           flexInt    `json:"end_line"`
}

// fencedArray matches a JSON array inside a markdown code fence.
var fencedArray = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// ParseFindings extracts structured findings from a raw model reply.
// It tries strict JSON first (the reply is a JSON list, or an object with
// an "optimizations" list), then falls back to pulling JSON arrays out of
// surrounding free text. Candidates missing a description or safety
// rationale are dropped with a warning; if every candidate is dropped, or
// nothing could be extracted at all, the call fails with *ParseError.
// A strict, explicitly empty list is valid and yields zero findings.
func ParseFindings(text string, logger zerolog.Logger) ([]Finding, error) {
	candidates, strict := extractCandidates(text)

	if candidates == nil {
		return nil, &ParseError{Reason: "no JSON findings list in reply"}
	}
	if len(candidates) == 0 {
		if strict {
			// The model explicitly reported no optimizations.
			return []Finding{}, nil
		}
		return nil, &ParseError{Reason: "no JSON findings list in reply"}
	}

	findings := make([]Finding, 0, len(candidates))
	dropped := 0
	for i, raw := range candidates {
		if raw.Description.value == "" || raw.SafetyRationale.value == "" {
			dropped++
			logger.Warn().
				Int("index", i).
				Msg("Dropping finding with missing description or safety rationale")
			continue
		}
		findings = append(findings, Finding{
			Description:       raw.Description.value,
			SuggestedChange:   raw.SuggestedChange.value,
			EstimatedGasSaved: raw.EstimatedGasSaved.value,
			SafetyRationale:   raw.SafetyRationale.value,
			StartLine:         raw.StartLine.value,
			EndLine:           raw.EndLine.value,
		})
	}

	if len(findings) == 0 {
		return nil, &ParseError{Reason: "all extracted findings were malformed"}
	}
	if dropped > 0 {
		logger.Warn().
			Int("dropped", dropped).
			Int("kept", len(findings)).
			Msg("Partial parse: some findings were malformed")
	}
	return findings, nil
}

// extractCandidates returns the raw finding candidates and whether they
// came from a strict parse of the whole reply. A nil slice means nothing
// resembling a findings list was found.
func extractCandidates(text string) ([]rawFinding, bool) {
	body := stripFences(strings.TrimSpace(text))

	// Strict pass: the whole body is the list, or a wrapper object.
	var list []rawFinding
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, true
	}
	var wrapper struct {
		Optimizations []rawFinding `json:"optimizations"`
	}
	if err := json.Unmarshal([]byte(body), &wrapper); err == nil && wrapper.Optimizations != nil {
		return wrapper.Optimizations, true
	}

	// Tolerant pass: fish JSON arrays out of the surrounding prose.
	var candidates []rawFinding
	found := false
	for _, blob := range findArrayBlobs(text) {
		var part []rawFinding
		if err := json.Unmarshal([]byte(blob), &part); err == nil {
			candidates = append(candidates, part...)
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return candidates, false
}

// stripFences removes a markdown code fence wrapping the whole body.
func stripFences(body string) string {
	if !strings.HasPrefix(body, "```") {
		return body
	}
	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return body
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}

// findArrayBlobs returns every top-level JSON array in the text: fenced
// arrays first, then bracket-balanced arrays in the remaining prose.
func findArrayBlobs(text string) []string {
	var blobs []string
	for _, m := range fencedArray.FindAllStringSubmatch(text, -1) {
		blobs = append(blobs, m[1])
	}
	// Blank out fenced regions so the balanced scan does not re-find them.
	remainder := fencedArray.ReplaceAllString(text, "")
	blobs = append(blobs, balancedArrays(remainder)...)
	return blobs
}

// balancedArrays scans for [ ... ] regions with balanced brackets,
// ignoring brackets inside JSON strings.
func balancedArrays(text string) []string {
	var blobs []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					blobs = append(blobs, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return blobs
}

// flexString unmarshals a JSON string, number, or null into a string.
type flexString struct {
	value string
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		f.value = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value = strings.TrimSpace(s)
		return nil
	}
	// Numbers and other scalars render as-is.
	f.value = strings.Trim(trimmed, `"`)
	return nil
}

// flexInt unmarshals a JSON number, numeric string, or null into an int.
// Anything non-numeric becomes zero (no location).
type flexInt struct {
	value int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if trimmed == "null" || trimmed == "" {
		f.value = 0
		return nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && n > 0 {
		f.value = int(n)
	}
	return nil
}

package analyze

import (
	"strings"
)

// MergeChunkFindings combines findings parsed from the chunks of one unit.
// Line numbers are shifted from chunk-relative to original-source
// coordinates, then near-duplicates introduced by chunk overlap are
// removed: two findings are duplicates when their normalized descriptions
// match and their line ranges overlap (or neither carries line info).
// Chunk order, and order within a chunk, is preserved.
func MergeChunkFindings(chunks []Chunk, perChunk [][]Finding) []Finding {
	var merged []Finding
	for i, findings := range perChunk {
		offset := 0
		if i < len(chunks) {
			offset = chunks[i].StartLine - 1
		}
		for _, f := range findings {
			if f.StartLine > 0 {
				f.StartLine += offset
			}
			if f.EndLine > 0 {
				f.EndLine += offset
			}
			if !containsDuplicate(merged, f) {
				merged = append(merged, f)
			}
		}
	}
	return merged
}

func containsDuplicate(existing []Finding, f Finding) bool {
	for _, e := range existing {
		if sameFinding(e, f) {
			return true
		}
	}
	return false
}

func sameFinding(a, b Finding) bool {
	if normalizeDescription(a.Description) != normalizeDescription(b.Description) {
		return false
	}
	// No location on either side: description match is enough.
	if a.StartLine == 0 && b.StartLine == 0 {
		return true
	}
	return rangesOverlap(a.StartLine, a.EndLine, b.StartLine, b.EndLine)
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	if aStart == 0 || bStart == 0 {
		return false
	}
	if aEnd < aStart {
		aEnd = aStart
	}
	if bEnd < bStart {
		bEnd = bStart
	}
	return aStart <= bEnd && bStart <= aEnd
}

// normalizeDescription lowercases and collapses whitespace so cosmetic
// differences between chunk replies do not defeat de-duplication.
func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

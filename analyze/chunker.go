package analyze

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkThreshold is the source size in bytes above which a unit
	// is split into multiple requests.
	DefaultChunkThreshold = 48 * 1024
	// DefaultChunkOverlap is the number of lines repeated between adjacent
	// chunks so optimizations spanning a boundary are still visible.
	DefaultChunkOverlap = 10
)

// Chunk is one context-budget-sized slice of a source unit.
type Chunk struct {
	Index int
	Total int
	// StartLine is the 1-based line in the original source where this
	// chunk's text begins. Finding line numbers are shifted by it.
	StartLine int
	Text      string
}

// ChunkerConfig controls how oversized sources are split. Both values are
// policy, not hardcoded behavior; zero values fall back to defaults.
type ChunkerConfig struct {
	Threshold int // bytes
	Overlap   int // lines
}

// Declaration starts we are willing to split before: file-level
// declarations at brace depth zero, and contract members at depth one.
// Deeper nesting is always statement territory and never split.
var (
	fileLevelDecl = regexp.MustCompile(`^\s*(abstract\s+contract|contract|library|interface|struct|enum|pragma|import)\b`)
	memberDecl    = regexp.MustCompile(`^\s*(function|constructor|modifier|event|receive|fallback)\b`)
)

// SplitSource splits source text into chunks that each fit the configured
// threshold. Splits are only made at top-level declaration boundaries,
// never inside one, so a chunk may exceed the threshold when a single
// declaration does. Sources at or below the threshold yield one chunk.
func SplitSource(text string, cfg ChunkerConfig) []Chunk {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultChunkThreshold
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	if len(text) <= cfg.Threshold {
		return []Chunk{{Index: 0, Total: 1, StartLine: 1, Text: text}}
	}

	lines := strings.Split(text, "\n")
	boundaries := declarationBoundaries(lines)

	var chunks []Chunk
	chunkStart := 0 // inclusive line index of the current chunk
	size := 0

	flush := func(end int) {
		if end <= chunkStart {
			return
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			StartLine: chunkStart + 1,
			Text:      strings.Join(lines[chunkStart:end], "\n"),
		})
	}

	for i, line := range lines {
		if size > cfg.Threshold && boundaries[i] {
			flush(i)
			chunkStart = i - cfg.Overlap
			if chunkStart < 0 {
				chunkStart = 0
			}
			size = lineRangeSize(lines, chunkStart, i)
		}
		size += len(line) + 1
	}
	flush(len(lines))

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// declarationBoundaries returns, per line, whether a chunk may start there:
// the line opens a file-level declaration with all braces closed, or a
// contract member (function, modifier, event) directly inside a contract.
func declarationBoundaries(lines []string) []bool {
	boundaries := make([]bool, len(lines))
	depth := 0
	for i, line := range lines {
		switch {
		case depth == 0 && fileLevelDecl.MatchString(line):
			boundaries[i] = true
		case depth == 1 && memberDecl.MatchString(line):
			boundaries[i] = true
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
	return boundaries
}

func lineRangeSize(lines []string, start, end int) int {
	size := 0
	for _, line := range lines[start:end] {
		size += len(line) + 1
	}
	return size
}

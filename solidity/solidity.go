// Package solidity handles discovery and light structural scanning of
// Solidity sources. It is not a validator; the analysis pipeline assumes
// input text is already decoded.
package solidity

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Structure lists the top-level declarations found in one source, used for
// logging and chunk diagnostics.
type Structure struct {
	Contracts []string
	Functions []string
	Modifiers []string
	Events    []string
}

var (
	contractRe = regexp.MustCompile(`\b(?:contract|library|interface)\s+(\w+)`)
	functionRe = regexp.MustCompile(`\bfunction\s+(\w+)`)
	modifierRe = regexp.MustCompile(`\bmodifier\s+(\w+)`)
	eventRe    = regexp.MustCompile(`\bevent\s+(\w+)`)
)

// Scan extracts declaration names from source text.
func Scan(text string) Structure {
	return Structure{
		Contracts: names(contractRe, text),
		Functions: names(functionRe, text),
		Modifiers: names(modifierRe, text),
		Events:    names(eventRe, text),
	}
}

func names(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// FindFiles resolves a path or glob pattern to the .sol files it covers:
// a single file, a directory walked recursively, or a glob pattern.
// Results are sorted for stable run ordering.
func FindFiles(pattern string) ([]string, error) {
	var files []string

	switch {
	case strings.ContainsAny(pattern, "*?["):
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		files = matches

	default:
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, fmt.Errorf("input path %q: %w", pattern, err)
		}
		if info.IsDir() {
			err := filepath.WalkDir(pattern, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %q: %w", pattern, err)
			}
		} else {
			files = []string{pattern}
		}
	}

	sol := make([]string, 0, len(files))
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".sol") && isRegularFile(f) {
			sol = append(sol, f)
		}
	}
	sort.Strings(sol)
	return sol, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

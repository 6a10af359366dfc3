package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mythra.log")

	log, err := InitFile("debug", path)
	if err != nil {
		t.Fatalf("InitFile failed: %v", err)
	}
	log.Info().Str("unit", "a.sol").Msg("unit analysis complete")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	if entry["message"] != "unit analysis complete" || entry["unit"] != "a.sol" {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestInitFileBadPath(t *testing.T) {
	if _, err := InitFile("info", "/does/not/exist/mythra.log"); err == nil {
		t.Error("expected error for unwritable log path")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aschepis/mythra/config"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfgFile = path
	defer func() { cfgFile = "" }()

	cmd := configInitCmd()
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Analysis.Model != "gpt-4o" || cfg.Analysis.MaxAttempts != 3 {
		t.Errorf("written config lost its defaults: %+v", cfg.Analysis)
	}

	// A second init without --force must refuse to clobber the file.
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected error when config file already exists")
	}

	if err := cmd.Flags().Set("force", "true"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}
}

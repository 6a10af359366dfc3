package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aschepis/mythra/analyze"
	"github.com/aschepis/mythra/cache"
	"github.com/aschepis/mythra/config"
	"github.com/aschepis/mythra/display"
	"github.com/aschepis/mythra/solidity"
)

func analyzeCmd() *cobra.Command {
	var (
		model        string
		openaiKey    string
		anthropicKey string
		googleKey    string
		output       string
		concurrency  int
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file|directory|glob>...",
		Short: "Analyze Solidity sources for gas optimizations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := cfgFile
			if cfgPath == "" {
				cfgPath = config.GetConfigPath()
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			// Flags win over file and environment configuration.
			if model != "" {
				cfg.Analysis.Model = model
			}
			if openaiKey != "" {
				cfg.OpenAI.APIKey = openaiKey
			}
			if anthropicKey != "" {
				cfg.Anthropic.APIKey = anthropicKey
			}
			if googleKey != "" {
				cfg.Google.APIKey = googleKey
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Analysis.Concurrency = concurrency
			}
			if noCache {
				cfg.Analysis.NoCache = true
			}

			log, err := initLogger()
			if err != nil {
				return err
			}

			units, err := collectUnits(args)
			if err != nil {
				return err
			}
			if len(units) == 0 {
				return fmt.Errorf("no .sol files found in %v", args)
			}

			client, err := buildClient(cfg)
			if err != nil {
				return err
			}

			var responseCache analyze.ResponseCache
			if !cfg.Analysis.NoCache {
				store, err := cache.Open(cfg.Analysis.CachePath, log)
				if err != nil {
					log.Warn().Err(err).Msg("Response cache unavailable; continuing without it")
				} else {
					defer store.Close()
					responseCache = store
				}
			}

			dispatcher := analyze.NewDispatcher(client, analyze.DispatcherConfig{
				MaxAttempts:    cfg.Analysis.MaxAttempts,
				AttemptTimeout: time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
				MaxConcurrent:  cfg.Analysis.Concurrency,
			}, log)

			analyzer := analyze.NewAnalyzer(dispatcher, analyze.Config{
				Model:       cfg.Analysis.Model,
				MaxTokens:   cfg.Analysis.MaxTokens,
				Temperature: cfg.Analysis.Temperature,
				Concurrency: cfg.Analysis.Concurrency,
				Chunker: analyze.ChunkerConfig{
					Threshold: cfg.Analysis.ChunkThreshold,
					Overlap:   cfg.Analysis.ChunkOverlap,
				},
			}, responseCache, log)

			report, runErr := analyzer.Run(cmd.Context(), units)
			if report != nil {
				if err := writeReport(report, output); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model to use (e.g. gpt-4o, claude-sonnet-4-5, gemini-2.0-flash)")
	cmd.Flags().StringVar(&openaiKey, "openai-key", "", "OpenAI API key")
	cmd.Flags().StringVar(&anthropicKey, "anthropic-key", "", "Anthropic API key")
	cmd.Flags().StringVar(&googleKey, "google-key", "", "Google API key")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report as JSON to this file ('-' for stdout)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of files analyzed in parallel")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")

	return cmd
}

// collectUnits expands each argument to .sol files and reads them.
func collectUnits(args []string) ([]analyze.SourceUnit, error) {
	seen := make(map[string]bool)
	var units []analyze.SourceUnit

	for _, arg := range args {
		files, err := solidity.FindFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			if seen[path] {
				continue
			}
			seen[path] = true

			data, err := os.ReadFile(path) //#nosec 304 -- user-provided source path
			if err != nil {
				return nil, fmt.Errorf("reading %q: %w", path, err)
			}
			units = append(units, analyze.SourceUnit{
				Name: filepath.Base(path),
				Path: path,
				Text: string(data),
			})
		}
	}
	return units, nil
}

// writeReport renders to the terminal and, when requested, writes the JSON
// form to output.
func writeReport(report *analyze.Report, output string) error {
	if output == "-" {
		return display.WriteJSON(os.Stdout, report)
	}

	fmt.Print(display.Render(report))

	if output != "" {
		f, err := os.Create(output) //#nosec 304 -- user-provided output path
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if err := display.WriteJSON(f, report); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
	}
	return nil
}

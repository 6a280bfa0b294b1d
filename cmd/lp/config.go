package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set workspace configuration values.

Usage:
  lp config                        # Show all config
  lp config threshold              # Get specific value
  lp config threshold 0.75         # Set value
  lp config weight-time 0.5        # Set a default search weight

Keys:
  threshold          Relatedness a prerequisite edge must exceed, in [0, 1)
  fetch-concurrency  Sources acquired at once
  fetch-rate-limit   HTTP requests per second (0 for unlimited)
  fetch-timeout      Per-request HTTP timeout (e.g. 30s)
  max-pdf-pages      Pages read per PDF (0 for all)
  ollama-url         Ollama API endpoint
  embedding-model    Ollama embedding model
  weight-time, weight-cognitive, weight-prereq, weight-interest
                     Default search weights`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"threshold",
	"fetch-concurrency",
	"fetch-rate-limit",
	"fetch-timeout",
	"max-pdf-pages",
	"ollama-url",
	"embedding-model",
	"weight-time",
	"weight-cognitive",
	"weight-prereq",
	"weight-interest",
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	cfg := mustLoadConfig(root)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, k := range configKeys {
				v, _ := getConfigValue(cfg, k)
				fmt.Printf("%-18s %s\n", k+":", v)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, ok := getConfigValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): v})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}

	return nil
}

func getConfigValue(cfg *config.Config, key string) (string, bool) {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	switch key {
	case "threshold":
		return f(cfg.Threshold), true
	case "fetch-concurrency":
		return strconv.Itoa(cfg.FetchConcurrency), true
	case "fetch-rate-limit":
		return f(cfg.FetchRateLimit), true
	case "fetch-timeout":
		return time.Duration(cfg.FetchTimeout).String(), true
	case "max-pdf-pages":
		return strconv.Itoa(cfg.MaxPDFPages), true
	case "ollama-url":
		return cfg.OllamaURL, true
	case "embedding-model":
		return cfg.EmbeddingModel, true
	case "weight-time":
		return f(cfg.Weights.Time), true
	case "weight-cognitive":
		return f(cfg.Weights.Cognitive), true
	case "weight-prereq":
		return f(cfg.Weights.Prereq), true
	case "weight-interest":
		return f(cfg.Weights.Interest), true
	}
	return "", false
}

func setConfigValue(cfg *config.Config, key, value string) error {
	parseFloat := func() (float64, error) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %q is not a number", key, value)
		}
		return v, nil
	}
	parseInt := func() (int, error) {
		v, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %q is not an integer", key, value)
		}
		return v, nil
	}

	var err error
	switch key {
	case "threshold":
		cfg.Threshold, err = parseFloat()
	case "fetch-concurrency":
		cfg.FetchConcurrency, err = parseInt()
	case "fetch-rate-limit":
		cfg.FetchRateLimit, err = parseFloat()
	case "fetch-timeout":
		var d time.Duration
		d, err = time.ParseDuration(value)
		cfg.FetchTimeout = config.Duration(d)
	case "max-pdf-pages":
		cfg.MaxPDFPages, err = parseInt()
	case "ollama-url":
		cfg.OllamaURL = value
	case "embedding-model":
		cfg.EmbeddingModel = value
	case "weight-time":
		cfg.Weights.Time, err = parseFloat()
	case "weight-cognitive":
		cfg.Weights.Cognitive, err = parseFloat()
	case "weight-prereq":
		cfg.Weights.Prereq, err = parseFloat()
	case "weight-interest":
		cfg.Weights.Interest, err = parseFloat()
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

// normalizeKey converts key formats (fetch-timeout, fetch_timeout, FETCH_TIMEOUT) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a learnpath workspace",
	Long: `Initialize a learnpath workspace in the current directory.

Creates:
  .learnpath/
  ├── config.json     # Default config
  └── cache/          # Embedding cache (gitignored)

The graph snapshot (graph.jsonl) and learner database (learners.db) are
created on first use. Add per-concept estimates in .learnpath/estimates.yml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	if config.IsWorkspace(root) {
		exitWithError(ExitError, "directory already contains a learnpath workspace")
	}

	if _, err := config.Init(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized learnpath workspace in %s\n", config.WorkspacePath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.WorkspacePath(root)})
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/builder"
	"github.com/matsen/learnpath/internal/service"
)

var buildNoProgress bool

func init() {
	buildCmd.Flags().BoolVar(&refreshSources, "refresh", false, "Fetch remote sources again instead of using cached copies")
	buildCmd.Flags().BoolVar(&buildNoProgress, "no-progress", false, "Do not report acquisition progress on stderr")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build SOURCE...",
	Short: "Build the learning graph from sources",
	Long: `Build a learning graph from web pages, PDFs and local files.

Each source becomes a learning resource node; the concepts found in its text
become concept nodes, and related concepts are linked by prerequisite edges
when their semantic relatedness exceeds the configured threshold.

Fetched web pages are cached under .learnpath/cache/documents; pass
--refresh to fetch them again.

Sources that cannot be fetched or parsed are skipped and reported. The new
graph replaces the previous one only if the build succeeds.

Requires Ollama with the configured embedding model.

Examples:
  lp build https://go.dev/doc/effective_go
  lp build notes/recursion.md papers/sorting.pdf --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()

	var progress builder.ProgressReporter
	if humanOutput && !buildNoProgress {
		progress = builder.ProgressFunc(printProgress)
	}

	a := mustNewApp(root, true, progress)
	defer a.Close()

	ctx := context.Background()
	mustValidateOllama(ctx, a.provider)

	summary, err := a.svc.BuildGraph(ctx, args)
	if progress != nil {
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", progressLineClearWidth))
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		printBuildSummary(summary)
	} else {
		outputJSON(summary)
	}
	return nil
}

func printBuildSummary(s service.GraphSummary) {
	fmt.Printf("Built graph: %d nodes, %d edges\n", s.Nodes, s.Edges)
	fmt.Printf("  Concepts:       %d\n", s.Stats.Concepts)
	fmt.Printf("  Resources:      %d\n", s.Stats.Resources)
	fmt.Printf("  Explains:       %d\n", s.Stats.Explains)
	fmt.Printf("  Prerequisites:  %d\n", s.Stats.Prerequisites)
	if s.Build == nil {
		return
	}
	fmt.Printf("  Sources:        %d/%d acquired\n", s.Build.SourcesAcquired, s.Build.SourcesTotal)
	fmt.Printf("  Duration:       %s\n", formatDuration(s.Build.Duration))
	if len(s.Build.Skipped) > 0 {
		fmt.Printf("\nSkipped %d source(s):\n", len(s.Build.Skipped))
		for _, sk := range s.Build.Skipped {
			fmt.Printf("  %s: %s\n", truncateString(sk.URI, 60), sk.Reason)
		}
	}
}

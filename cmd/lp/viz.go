package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/cost"
	"github.com/matsen/learnpath/internal/pathfind"
	"github.com/matsen/learnpath/internal/viz"
)

var (
	vizOutput string
	vizLayout string
	vizTitle  string
	vizFrom   string
	vizTo     string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "force", "Layout algorithm: force, circle, grid, or tree")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title")
	vizCmd.Flags().StringVar(&vizFrom, "from", "", "Highlight the cheapest path starting here (requires --to)")
	vizCmd.Flags().StringVar(&vizTo, "to", "", "Highlight the cheapest path ending here (requires --from)")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate learning graph visualization",
	Long: `Generate an interactive HTML visualization of the learning graph.

Concepts are drawn as orange diamonds, learning resources as blue circles.
Prerequisite edges thicken with relatedness. With --from and --to the cheapest
path under the configured default weights is highlighted.

Examples:
  # Generate HTML to stdout
  lp viz > graph.html

  # Highlight a path and write to file
  lp viz --from lists --to recursion --output graph.html

  # Use hierarchical layout
  lp viz --layout tree --output graph.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	if (vizFrom == "") != (vizTo == "") {
		exitWithError(ExitError, "--from and --to must be given together")
	}

	root := mustFindWorkspace()
	g := mustLoadGraph(root)

	var path []string
	if vizFrom != "" {
		cfg := mustLoadConfig(root)
		est := mustLoadEstimates(root)
		res := pathfind.FindPath(g, vizFrom, vizTo, cfg.Weights, cost.Context{
			Durations:    est.Durations,
			Difficulties: est.Difficulties,
		})
		if !res.Found() {
			exitWithError(ExitNoPath, "no path found from %q to %q", vizFrom, vizTo)
		}
		path = res.Path
	}

	opts := viz.DefaultOptions()
	opts.Layout = vizLayout
	if vizTitle != "" {
		opts.Title = vizTitle
	}
	html, err := viz.GenerateHTML(viz.FromGraph(g, path), opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}

	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		fmt.Printf("Visualization written to %s\n", vizOutput)
	} else {
		outputJSON(map[string]string{"output": vizOutput})
	}
	return nil
}

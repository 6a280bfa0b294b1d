package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/config"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/service"
)

func init() {
	graphCmd.AddCommand(graphShowCmd)
	graphCmd.AddCommand(graphStatsCmd)
	graphCmd.AddCommand(graphCheckCmd)
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the learning graph",
}

var graphShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print all nodes and edges",
	Args:  cobra.NoArgs,
	RunE:  runGraphShow,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print node and edge counts",
	Args:  cobra.NoArgs,
	RunE:  runGraphStats,
}

var graphCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the graph for orphaned and duplicate edges",
	Long: `Check the stored graph for edges whose endpoints are not nodes and for
repeated edges between the same pair. Exits with code 8 if problems are found.`,
	Args: cobra.NoArgs,
	RunE: runGraphCheck,
}

func runGraphShow(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph(mustFindWorkspace())
	view := service.ViewOf(g)

	if !humanOutput {
		outputJSON(view)
		return nil
	}

	fmt.Printf("Nodes (%d):\n", len(view.Nodes))
	for _, n := range view.Nodes {
		if n.Kind == concept.KindLearningResource {
			fmt.Printf("  %-12s %s\n", n.ID, n.SourceURI)
		} else {
			fmt.Printf("  %s\n", n.ID)
		}
	}
	fmt.Printf("\nEdges (%d):\n", len(view.Edges))
	for _, e := range view.Edges {
		if e.Weight != nil {
			fmt.Printf("  %s → %s [%s %.3f]\n", e.From, e.To, e.Kind, *e.Weight)
		} else {
			fmt.Printf("  %s → %s [%s]\n", e.From, e.To, e.Kind)
		}
	}
	return nil
}

func runGraphStats(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	g := mustLoadGraph(root)
	stats := g.Stats()

	if humanOutput {
		fmt.Printf("Graph: %s\n", config.GraphPath(root))
		fmt.Printf("  Nodes:          %d (%d concepts, %d resources)\n", stats.Nodes, stats.Concepts, stats.Resources)
		fmt.Printf("  Edges:          %d (%d explains, %d prerequisites)\n", stats.Edges, stats.Explains, stats.Prerequisites)
	} else {
		outputJSON(stats)
	}
	return nil
}

func runGraphCheck(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph(mustFindWorkspace())
	report := g.Check()

	if humanOutput {
		if report.OK() {
			fmt.Println("Graph OK")
		}
		for _, o := range report.Orphaned {
			fmt.Printf("orphaned %s edge %s → %s (%s)\n", o.Kind, o.SourceID, o.TargetID, o.Reason)
		}
		for _, d := range report.Duplicates {
			fmt.Printf("duplicate %s edge %s → %s (x%d)\n", d.Kind, d.SourceID, d.TargetID, d.Count)
		}
	} else {
		outputJSON(CheckResponse{OK: report.OK(), Report: report})
	}

	if !report.OK() {
		os.Exit(ExitIntegrity)
	}
	return nil
}

// CheckResponse is the JSON output of graph check.
type CheckResponse struct {
	OK bool `json:"ok"`
	graph.Report
}

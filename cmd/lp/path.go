package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/service"
)

var (
	pathTime      float64
	pathCognitive float64
	pathPrereq    float64
	pathInterest  float64
	pathLearner   string
	pathExplain   bool
)

func init() {
	pathCmd.Flags().Float64Var(&pathTime, "time", 0, "Weight of estimated study time (default from config)")
	pathCmd.Flags().Float64Var(&pathCognitive, "cognitive", 0, "Weight of estimated difficulty (default from config)")
	pathCmd.Flags().Float64Var(&pathPrereq, "prereq", 0, "Weight of prerequisite gaps (default from config)")
	pathCmd.Flags().Float64Var(&pathInterest, "interest", 0, "Weight of learner disinterest (default from config)")
	pathCmd.Flags().StringVar(&pathLearner, "learner", "", "Learner whose interests personalize the path")
	pathCmd.Flags().BoolVar(&pathExplain, "explain", false, "Show the cost breakdown of every step")
	rootCmd.AddCommand(pathCmd)
}

var pathCmd = &cobra.Command{
	Use:   "path START GOAL",
	Short: "Find the cheapest learning path between two nodes",
	Long: `Find the lowest-cost path from START to GOAL in the learning graph.

Each step costs a weighted sum of time, difficulty, prerequisite gap and
disinterest. Weights left unset come from the workspace config.

Exits with code 7 when GOAL is unreachable from START.

Examples:
  lp path lists recursion
  lp path res_0 recursion --prereq 1 --time 0 --cognitive 0 --interest 0
  lp path lists recursion --learner alice --explain --human`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func runPath(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	a := mustNewApp(root, true, nil)
	defer a.Close()

	req := service.PathRequest{
		Start:     args[0],
		Goal:      args[1],
		Weights:   weightsFromFlags(cmd),
		LearnerID: pathLearner,
	}

	res, err := a.svc.FindPath(context.Background(), req)
	switch {
	case errors.Is(err, service.ErrNoGraph):
		exitWithError(ExitNoGraph, "%v\n\nRun 'lp build URL...' to build a graph.", err)
	case errors.Is(err, service.ErrNoPath):
		exitWithError(ExitNoPath, "no path found from %q to %q", req.Start, req.Goal)
	case err != nil:
		exitWithError(ExitError, "%v", err)
	}

	if !pathExplain {
		res.Steps = nil
	}

	if !humanOutput {
		outputJSON(res)
		return nil
	}

	fmt.Println(formatPath(res.Path))
	fmt.Printf("cost %.3f (time %.2f, cognitive %.2f, prereq %.2f, interest %.2f)\n",
		res.Cost, res.Weights.Time, res.Weights.Cognitive, res.Weights.Prereq, res.Weights.Interest)
	if pathExplain && len(res.Steps) > 0 {
		fmt.Println()
		fmt.Print(formatSteps(res.Steps))
	}
	return nil
}

// weightsFromFlags returns only the weights given on the command line.
func weightsFromFlags(cmd *cobra.Command) *service.Weights {
	var w service.Weights
	set := false
	pick := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		set = true
		return &v
	}
	w.Time = pick("time", pathTime)
	w.Cognitive = pick("cognitive", pathCognitive)
	w.Prereq = pick("prereq", pathPrereq)
	w.Interest = pick("interest", pathInterest)
	if !set {
		return nil
	}
	return &w
}

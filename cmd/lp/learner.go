package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/learner"
	"github.com/matsen/learnpath/internal/service"
)

var learnerID string

func init() {
	learnerCmd.PersistentFlags().StringVar(&learnerID, "id", "", "Learner id (default learner if empty)")
	learnerCmd.AddCommand(learnerShowCmd)
	learnerCmd.AddCommand(learnerUpdateCmd)
	learnerCmd.AddCommand(learnerInterestCmd)
	learnerCmd.AddCommand(learnerListCmd)
	learnerCmd.AddCommand(learnerNewCmd)
	rootCmd.AddCommand(learnerCmd)
}

var learnerCmd = &cobra.Command{
	Use:   "learner",
	Short: "Manage learner interests and mastery",
}

var learnerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a learner's interests and knowledge state",
	Args:  cobra.NoArgs,
	RunE:  runLearnerShow,
}

var learnerUpdateCmd = &cobra.Command{
	Use:   "update CONCEPT MASTERY",
	Short: "Record mastery of a concept (0 to 1)",
	Args:  cobra.ExactArgs(2),
	RunE:  runLearnerUpdate,
}

var learnerInterestCmd = &cobra.Command{
	Use:   "interest CONCEPT",
	Short: "Add a concept to a learner's interests",
	Args:  cobra.ExactArgs(1),
	RunE:  runLearnerInterest,
}

var learnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored learners",
	Args:  cobra.NoArgs,
	RunE:  runLearnerList,
}

var learnerNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a fresh learner id",
	Args:  cobra.NoArgs,
	RunE:  runLearnerNew,
}

// newLearnerService wires a service over the learner database only.
func newLearnerService(root string) (*service.Service, func()) {
	db := mustOpenLearnerDB(root)
	return service.New(nil, db, nil), func() { db.Close() }
}

func runLearnerShow(cmd *cobra.Command, args []string) error {
	svc, closeFn := newLearnerService(mustFindWorkspace())
	defer closeFn()

	st, err := svc.Learner(context.Background(), learnerID)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		printLearner(st)
	} else {
		outputJSON(st)
	}
	return nil
}

func runLearnerUpdate(cmd *cobra.Command, args []string) error {
	mastery, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		exitWithError(ExitError, "invalid mastery %q: must be a number in [0, 1]", args[1])
	}

	svc, closeFn := newLearnerService(mustFindWorkspace())
	defer closeFn()

	ks, err := svc.UpdateLearner(context.Background(), learnerID, args[0], mastery)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Set mastery of %s to %.2f\n", args[0], mastery)
	} else {
		outputJSON(map[string]any{"knowledge_state": ks})
	}
	return nil
}

func runLearnerInterest(cmd *cobra.Command, args []string) error {
	svc, closeFn := newLearnerService(mustFindWorkspace())
	defer closeFn()

	interests, err := svc.AddInterest(context.Background(), learnerID, args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Interests: %v\n", interests)
	} else {
		outputJSON(map[string]any{"interests": interests})
	}
	return nil
}

func runLearnerList(cmd *cobra.Command, args []string) error {
	db := mustOpenLearnerDB(mustFindWorkspace())
	defer db.Close()

	ids, err := db.List(context.Background())
	if err != nil {
		exitWithError(ExitError, "listing learners: %v", err)
	}

	if humanOutput {
		if len(ids) == 0 {
			fmt.Println("No learners stored")
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	} else {
		if ids == nil {
			ids = []string{}
		}
		outputJSON(map[string]any{"learners": ids})
	}
	return nil
}

func runLearnerNew(cmd *cobra.Command, args []string) error {
	id := service.NewLearnerID()
	if humanOutput {
		fmt.Println(id)
	} else {
		outputJSON(map[string]string{"id": id})
	}
	return nil
}

func printLearner(st *learner.State) {
	fmt.Printf("Learner: %s\n", st.ID)
	fmt.Printf("Interests (%d):\n", len(st.Interests))
	for _, c := range st.Interests {
		fmt.Printf("  %s\n", c)
	}

	keys := make([]string, 0, len(st.KnowledgeState))
	for k := range st.KnowledgeState {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("Knowledge (%d):\n", len(keys))
	for _, k := range keys {
		fmt.Printf("  %-24s %.2f\n", truncateString(k, 24), st.KnowledgeState[k])
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/learnpath/internal/pathfind"
)

// progressLineClearWidth is the width cleared after an in-place progress line.
const progressLineClearWidth = 60

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// printProgress reports build progress on one stderr line.
func printProgress(done, total int) {
	fmt.Fprintf(os.Stderr, "\rAcquiring sources: %d/%d", done, total)
}

// formatPath joins a path with arrows.
func formatPath(path []string) string {
	return strings.Join(path, " → ")
}

// formatSteps renders a per-step cost table.
func formatSteps(steps []pathfind.Step) string {
	var sb strings.Builder
	for i, s := range steps {
		sb.WriteString(fmt.Sprintf("%2d. %s → %s [%s]\n", i+1, s.From, s.To, s.Kind))
		sb.WriteString(fmt.Sprintf("    time %.2f  cognitive %.2f  prereq %.2f  interest %.2f  = %.3f\n",
			s.Parts.Time, s.Parts.Cognitive, s.Parts.Prereq, s.Parts.Interest, s.Cost))
	}
	return sb.String()
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

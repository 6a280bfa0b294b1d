package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/matsen/learnpath/internal/mcpserver"
)

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server exposing the learning path tools:
build_graph, find_path, update_learner, add_interest and graph_stats.

By default the server speaks over stdio. With --http it serves the
streamable HTTP transport instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root := mustFindWorkspace()
	a := mustNewApp(root, true, nil)
	defer a.Close()

	srv := mcpserver.New(a.svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mcpHTTPAddr == "" {
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			exitWithError(ExitError, "mcp: %v", err)
		}
		return nil
	}

	hs := &http.Server{Addr: mcpHTTPAddr, Handler: mcpserver.HTTPHandler(srv)}
	go func() {
		<-ctx.Done()
		hs.Shutdown(context.Background())
	}()
	a.log.Info("serving mcp", "addr", mcpHTTPAddr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitWithError(ExitError, "mcp: %v", err)
	}
	return nil
}

// Package mcpserver exposes the learning-path operations as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matsen/learnpath/internal/service"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// New creates an MCP server with every tool registered.
func New(svc *service.Service) *mcp.Server {
	t := &Tools{Service: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "learnpath",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "build_graph",
		Description: "Build the learning graph from a list of source URLs or file paths, replacing the current graph",
	}, t.BuildGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "find_path",
		Description: "Find the lowest-cost learning path between two concepts for a learner",
	}, t.FindPath)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_learner",
		Description: "Set a learner's mastery of a concept (0 to 1)",
	}, t.UpdateLearner)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_interest",
		Description: "Record that a learner is interested in a concept",
	}, t.AddInterest)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Count the nodes and edges of the current graph by kind",
	}, t.GraphStats)

	return srv
}

// HTTPHandler serves the server over streamable HTTP.
func HTTPHandler(srv *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
}

// Tools holds the service the tool handlers call.
type Tools struct {
	Service *service.Service
}

// --- Input types ---

type BuildGraphInput struct {
	URLs []string `json:"urls" jsonschema:"Sources to acquire: http(s) URLs or local file paths"`
}

type FindPathInput struct {
	Start     string           `json:"start" jsonschema:"Starting concept or resource id"`
	Goal      string           `json:"goal" jsonschema:"Goal concept id"`
	Weights   *service.Weights `json:"weights,omitempty" jsonschema:"Weights for time, cognitive, prereq and interest; unset weights default to 0.25"`
	LearnerID string           `json:"learner_id,omitempty" jsonschema:"Learner whose interests personalize the path"`
}

type UpdateLearnerInput struct {
	LearnerID string  `json:"learner_id,omitempty" jsonschema:"Learner id, default learner if empty"`
	ConceptID string  `json:"concept_id" jsonschema:"Concept id"`
	Mastery   float64 `json:"mastery" jsonschema:"Mastery in [0, 1]"`
}

type AddInterestInput struct {
	LearnerID string `json:"learner_id,omitempty" jsonschema:"Learner id, default learner if empty"`
	ConceptID string `json:"concept_id" jsonschema:"Concept id"`
}

// --- Handlers ---

func (t *Tools) BuildGraph(ctx context.Context, _ *mcp.CallToolRequest, input BuildGraphInput) (*mcp.CallToolResult, any, error) {
	sum, err := t.Service.BuildGraph(ctx, input.URLs)
	if err != nil {
		return toolError("Build failed: %v", err), nil, nil
	}
	return toolJSON(sum)
}

func (t *Tools) FindPath(ctx context.Context, _ *mcp.CallToolRequest, input FindPathInput) (*mcp.CallToolResult, any, error) {
	res, err := t.Service.FindPath(ctx, service.PathRequest{
		Start:     input.Start,
		Goal:      input.Goal,
		Weights:   input.Weights,
		LearnerID: input.LearnerID,
	})
	if err != nil {
		return toolError("Path search failed: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *Tools) UpdateLearner(ctx context.Context, _ *mcp.CallToolRequest, input UpdateLearnerInput) (*mcp.CallToolResult, any, error) {
	ks, err := t.Service.UpdateLearner(ctx, input.LearnerID, input.ConceptID, input.Mastery)
	if err != nil {
		return toolError("Failed to update learner: %v", err), nil, nil
	}
	return toolJSON(map[string]any{"knowledge_state": ks})
}

func (t *Tools) AddInterest(ctx context.Context, _ *mcp.CallToolRequest, input AddInterestInput) (*mcp.CallToolResult, any, error) {
	interests, err := t.Service.AddInterest(ctx, input.LearnerID, input.ConceptID)
	if err != nil {
		return toolError("Failed to add interest: %v", err), nil, nil
	}
	return toolJSON(map[string]any{"interests": interests})
}

func (t *Tools) GraphStats(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	g, ok := t.Service.Graph()
	if !ok {
		return toolError("%v", service.ErrNoGraph), nil, nil
	}
	return toolJSON(g.Stats())
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

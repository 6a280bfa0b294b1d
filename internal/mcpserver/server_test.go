package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/learnpath/internal/builder"
	"github.com/matsen/learnpath/internal/concept"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/graph"
	"github.com/matsen/learnpath/internal/service"
)

type stubBuilder struct{}

func (stubBuilder) Build(ctx context.Context, sources []string) (*graph.Graph, *builder.BuildStats, error) {
	g := graph.New()
	for _, l := range []string{"A", "B", "C"} {
		g.AddNode(concept.New(l))
	}
	g.AddEdge(edge.NewHasPrerequisite("A", "B", 0.9))
	g.AddEdge(edge.NewHasPrerequisite("B", "C", 0.8))
	return g, &builder.BuildStats{SourcesTotal: len(sources), SourcesAcquired: len(sources)}, nil
}

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := New(service.New(nil, nil, stubBuilder{}))

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s)", name)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text, result.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"build_graph", "find_path", "update_learner", "add_interest", "graph_stats"}, names)
}

func TestBuildAndFindPath(t *testing.T) {
	session := connect(t)

	text, isErr := callTool(t, session, "find_path", map[string]any{"start": "A", "goal": "C"})
	assert.True(t, isErr)
	assert.Contains(t, text, "graph not built yet")

	_, isErr = callTool(t, session, "build_graph", map[string]any{"urls": []string{"https://example.com"}})
	require.False(t, isErr)

	text, isErr = callTool(t, session, "find_path", map[string]any{
		"start":   "A",
		"goal":    "C",
		"weights": map[string]any{"time": 0, "cognitive": 0, "prereq": 1, "interest": 0},
	})
	require.False(t, isErr, text)

	var res service.PathResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, []string{"A", "B", "C"}, res.Path)
	assert.InDelta(t, 0.3, res.Cost, 1e-9)

	text, isErr = callTool(t, session, "find_path", map[string]any{"start": "C", "goal": "A"})
	assert.True(t, isErr)
	assert.Contains(t, text, "no path found")

	text, isErr = callTool(t, session, "graph_stats", map[string]any{})
	require.False(t, isErr)
	var stats graph.Stats
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, 3, stats.Concepts)
}

func TestLearnerTools(t *testing.T) {
	session := connect(t)

	text, isErr := callTool(t, session, "update_learner", map[string]any{"concept_id": "A", "mastery": 0.5})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"A": 0.5`)

	text, isErr = callTool(t, session, "update_learner", map[string]any{"concept_id": "A", "mastery": 2})
	assert.True(t, isErr)
	assert.Contains(t, text, "mastery out of range")

	text, isErr = callTool(t, session, "add_interest", map[string]any{"learner_id": "ada", "concept_id": "B"})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"B"`)
}

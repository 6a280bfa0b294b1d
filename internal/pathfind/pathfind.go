// Package pathfind finds the lowest aggregate-cost learning path between two
// nodes of a learning graph.
//
// The search is uniform-cost (Dijkstra over the weighted-sum cost of package
// cost); no heuristic is used. Each frontier entry carries its full path
// prefix, so the winning path needs no parent-pointer reconstruction. Nodes
// are expanded at most once, which bounds the search on any finite graph,
// cycles and self-loops included.
package pathfind

import (
	"container/heap"
	"slices"

	"github.com/matsen/learnpath/internal/cost"
	"github.com/matsen/learnpath/internal/edge"
	"github.com/matsen/learnpath/internal/graph"
)

// Result is a found path and its aggregate cost. An empty Path means no path:
// an absent endpoint or an exhausted frontier.
type Result struct {
	Path []string `json:"path"`
	Cost float64  `json:"cost"`
}

// Found reports whether a path was found.
func (r Result) Found() bool {
	return len(r.Path) > 0
}

// FindPath returns the cheapest path from start to goal. The first time the
// goal is popped its cost is minimal, provided every edge cost is >= 0, which
// holds for non-negative weights.
//
// Ties on cost are broken by the lexicographically smaller path, then by push
// order, so results are reproducible.
func FindPath(g *graph.Graph, start, goal string, w cost.Weights, c cost.Context) Result {
	if g == nil || !g.Has(start) || !g.Has(goal) {
		return Result{}
	}

	frontier := &queue{}
	seq := 0
	heap.Push(frontier, &entry{cost: 0, path: []string{start}, seq: seq})
	visited := make(map[string]bool)

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(*entry)
		node := cur.path[len(cur.path)-1]

		if node == goal {
			return Result{Path: cur.path, Cost: cur.cost}
		}
		if visited[node] {
			continue // stale: node was expanded through a cheaper entry
		}
		visited[node] = true

		for _, e := range g.Neighbors(node) {
			succ := e.To()
			if visited[succ] {
				continue
			}
			path := make([]string, len(cur.path)+1)
			copy(path, cur.path)
			path[len(cur.path)] = succ

			seq++
			heap.Push(frontier, &entry{
				cost: cur.cost + cost.EdgeCost(e, succ, w, c),
				path: path,
				seq:  seq,
			})
		}
	}

	return Result{}
}

// Step is one traversal along a path with its cost breakdown.
type Step struct {
	From  string        `json:"from"`
	To    string        `json:"to"`
	Kind  edge.Kind     `json:"kind"`
	Parts cost.SubCosts `json:"parts"`
	Cost  float64       `json:"cost"`
}

// Explain re-derives the traversal costs along path, choosing the cheapest
// parallel edge between consecutive nodes. It returns false if some
// consecutive pair has no connecting edge.
func Explain(g *graph.Graph, path []string, w cost.Weights, c cost.Context) ([]Step, bool) {
	if g == nil || len(path) == 0 {
		return nil, false
	}
	steps := make([]Step, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		var best *Step
		for _, e := range g.Neighbors(from) {
			if e.To() != to {
				continue
			}
			parts := cost.Breakdown(e, to, c)
			total := parts.Total(w)
			if best == nil || total < best.Cost {
				best = &Step{From: from, To: to, Kind: e.Kind(), Parts: parts, Cost: total}
			}
		}
		if best == nil {
			return nil, false
		}
		steps = append(steps, *best)
	}
	return steps, true
}

// PathCost re-sums the aggregate cost along path.
func PathCost(g *graph.Graph, path []string, w cost.Weights, c cost.Context) (float64, bool) {
	steps, ok := Explain(g, path, w, c)
	if !ok {
		return 0, false
	}
	var total float64
	for _, s := range steps {
		total += s.Cost
	}
	return total, true
}

type entry struct {
	cost float64
	path []string
	seq  int
}

// queue is a min-heap of frontier entries.
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if c := slices.Compare(q[i].path, q[j].path); c != 0 {
		return c < 0
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

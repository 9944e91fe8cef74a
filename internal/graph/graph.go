package graph

import (
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Transaction Graph
//
// Directed simple graph over account ids. Every ledger row contributes an
// edge sender → receiver; repeated rows collapse to one edge and self-loops
// are kept. Nodes are numbered in first-appearance order (sender before
// receiver within a row) and that numbering drives every iteration order
// exposed here, which keeps downstream ring ids deterministic.

// Edge is a directed (From, To) account pair.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is built once by Build and is read-only afterwards.
type Graph struct {
	ids      []string       // node index → account id
	index    map[string]int // account id → node index
	succ     [][]int        // successors in first-seen order
	succSet  []map[int]bool // edge membership
	inDegree []int          // distinct predecessors
	edges    int
}

// Build constructs the graph from ledger rows. Rows are assumed well-formed;
// validation belongs to the ingestion layer.
func Build(txs []models.Transaction) *Graph {
	g := &Graph{
		index: make(map[string]int),
	}
	for _, tx := range txs {
		g.addEdge(tx.SenderID, tx.ReceiverID)
	}
	return g
}

func (g *Graph) addNode(id string) int {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = idx
	g.succ = append(g.succ, nil)
	g.succSet = append(g.succSet, make(map[int]bool))
	g.inDegree = append(g.inDegree, 0)
	return idx
}

func (g *Graph) addEdge(from, to string) {
	u := g.addNode(from)
	v := g.addNode(to)
	if g.succSet[u][v] {
		return
	}
	g.succSet[u][v] = true
	g.succ[u] = append(g.succ[u], v)
	g.inDegree[v]++
	g.edges++
}

// Nodes returns all account ids in first-appearance order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Edges returns every edge grouped by source node order, successors in the
// order they were first seen.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for u, succ := range g.succ {
		for _, v := range succ {
			out = append(out, Edge{From: g.ids[u], To: g.ids[v]})
		}
	}
	return out
}

// NodeCount returns the number of distinct accounts.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int { return g.edges }

// HasNode reports whether id appeared in any transaction.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// HasEdge reports whether at least one transaction moved from → to.
func (g *Graph) HasEdge(from, to string) bool {
	u, ok := g.index[from]
	if !ok {
		return false
	}
	v, ok := g.index[to]
	if !ok {
		return false
	}
	return g.succSet[u][v]
}

// InDegree returns the number of distinct senders into id (0 for unknown ids).
func (g *Graph) InDegree(id string) int {
	if idx, ok := g.index[id]; ok {
		return g.inDegree[idx]
	}
	return 0
}

// OutDegree returns the number of distinct receivers from id (0 for unknown ids).
func (g *Graph) OutDegree(id string) int {
	if idx, ok := g.index[id]; ok {
		return len(g.succ[idx])
	}
	return 0
}

// Successors returns the distinct receivers of id in first-seen order.
func (g *Graph) Successors(id string) []string {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, len(g.succ[idx]))
	for i, v := range g.succ[idx] {
		out[i] = g.ids[v]
	}
	return out
}

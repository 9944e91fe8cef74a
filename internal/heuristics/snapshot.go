package heuristics

import (
	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Dashboard node colours.
const (
	FlaggedNodeColor = "red"
	DefaultNodeColor = "#3498db"
)

// BuildSnapshot renders the graph for visualization, marking every account
// that appears in result.SuspiciousAccounts.
func BuildSnapshot(g *graph.Graph, result models.AnalysisResult) models.GraphSnapshot {
	flagged := make(map[string]bool, len(result.SuspiciousAccounts))
	for _, acc := range result.SuspiciousAccounts {
		flagged[acc.AccountID] = true
	}

	nodes := g.Nodes()
	snap := models.GraphSnapshot{
		Nodes: make([]models.GraphNode, 0, len(nodes)),
		Edges: make([]models.GraphEdge, 0, g.EdgeCount()),
	}

	for _, id := range nodes {
		node := models.GraphNode{ID: id, Label: id, Color: DefaultNodeColor}
		if flagged[id] {
			node.Flagged = true
			node.Color = FlaggedNodeColor
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	for _, e := range g.Edges() {
		snap.Edges = append(snap.Edges, models.GraphEdge{From: e.From, To: e.To})
	}

	return snap
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawblock/ringwatch-engine/pkg/models"
)

func txs(pairs ...string) []models.Transaction {
	out := make([]models.Transaction, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Transaction{SenderID: pairs[i], ReceiverID: pairs[i+1]})
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)

	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
	assert.Equal(t, 0, g.InDegree("A"))
	assert.Equal(t, 0, g.OutDegree("A"))
}

func TestBuild_NodeOrderFollowsFirstAppearance(t *testing.T) {
	g := Build(txs("C", "A", "B", "C", "A", "D"))

	assert.Equal(t, []string{"C", "A", "B", "D"}, g.Nodes())
}

func TestBuild_DuplicateEdgesCollapse(t *testing.T) {
	g := Build(txs("A", "B", "A", "B", "A", "B", "B", "A"))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 1, g.OutDegree("A"))
	assert.Equal(t, 1, g.InDegree("B"))
	assert.Equal(t, []Edge{{From: "A", To: "B"}, {From: "B", To: "A"}}, g.Edges())
}

func TestBuild_SelfLoopKept(t *testing.T) {
	g := Build(txs("A", "A"))

	assert.Equal(t, []string{"A"}, g.Nodes())
	assert.True(t, g.HasEdge("A", "A"))
	assert.Equal(t, 1, g.InDegree("A"))
	assert.Equal(t, 1, g.OutDegree("A"))
}

func TestBuild_DegreesCountDistinctNeighbours(t *testing.T) {
	g := Build(txs(
		"S1", "HUB", "S2", "HUB", "S2", "HUB", "S3", "HUB",
		"HUB", "R1", "HUB", "R2", "HUB", "R1",
	))

	assert.Equal(t, 3, g.InDegree("HUB"))
	assert.Equal(t, 2, g.OutDegree("HUB"))
	assert.Equal(t, []string{"R1", "R2"}, g.Successors("HUB"))
	assert.Nil(t, g.Successors("missing"))
	assert.False(t, g.HasEdge("R1", "HUB"))
	assert.False(t, g.HasEdge("missing", "HUB"))
	assert.True(t, g.HasNode("S3"))
	assert.False(t, g.HasNode("S4"))
}

func TestBuild_EdgesGroupedBySourceOrder(t *testing.T) {
	g := Build(txs("A", "B", "B", "C", "A", "C"))

	assert.Equal(t, []Edge{
		{From: "A", To: "B"},
		{From: "A", To: "C"},
		{From: "B", To: "C"},
	}, g.Edges())
}

func TestNodes_ReturnsCopy(t *testing.T) {
	g := Build(txs("A", "B"))
	nodes := g.Nodes()
	nodes[0] = "mutated"

	assert.Equal(t, []string{"A", "B"}, g.Nodes())
}

func TestStronglyConnectedComponents(t *testing.T) {
	// A <-> B form a component, C -> D -> E -> C another, F is alone.
	g := Build(txs("A", "B", "B", "A", "B", "C", "C", "D", "D", "E", "E", "C", "E", "F"))

	comps := g.StronglyConnectedComponents()
	require.Len(t, comps, 3)
	assert.Equal(t, []string{"A", "B"}, comps[0])
	assert.Equal(t, []string{"C", "D", "E"}, comps[1])
	assert.Equal(t, []string{"F"}, comps[2])
}

package heuristics

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

func txs(pairs ...string) []models.Transaction {
	out := make([]models.Transaction, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Transaction{SenderID: pairs[i], ReceiverID: pairs[i+1]})
	}
	return out
}

func fanIn(target string, n int) []string {
	var pairs []string
	for i := 1; i <= n; i++ {
		pairs = append(pairs, fmt.Sprintf("%s_IN%d", target, i), target)
	}
	return pairs
}

func fanOut(source string, n int) []string {
	var pairs []string
	for i := 1; i <= n; i++ {
		pairs = append(pairs, source, fmt.Sprintf("%s_OUT%d", source, i))
	}
	return pairs
}

func analyze(pairs ...string) models.AnalysisResult {
	return NewDetector(DefaultConfig()).Analyze(txs(pairs...)).Result
}

func accountByID(t *testing.T, result models.AnalysisResult, id string) models.SuspiciousAccount {
	t.Helper()
	for _, acc := range result.SuspiciousAccounts {
		if acc.AccountID == id {
			return acc
		}
	}
	t.Fatalf("account %s not flagged", id)
	return models.SuspiciousAccount{}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	result := analyze()

	assert.NotNil(t, result.SuspiciousAccounts)
	assert.NotNil(t, result.FraudRings)
	assert.Empty(t, result.SuspiciousAccounts)
	assert.Empty(t, result.FraudRings)
	assert.Equal(t, 0, result.Summary.TotalAccountsAnalyzed)
	assert.Equal(t, 0, result.Summary.SuspiciousAccountsFlagged)
	assert.Equal(t, 0, result.Summary.FraudRingsDetected)
}

func TestAnalyze_TriangleFormsOneRing(t *testing.T) {
	result := analyze("A", "B", "B", "C", "C", "A")

	require.Len(t, result.FraudRings, 1)
	ring := result.FraudRings[0]
	assert.Equal(t, "RING_001", ring.RingID)
	assert.Equal(t, []string{"A", "B", "C"}, ring.MemberAccounts)
	assert.Equal(t, "cycle", ring.PatternType)
	assert.Equal(t, 95.0, ring.RiskScore)

	require.Len(t, result.SuspiciousAccounts, 3)
	for _, id := range []string{"A", "B", "C"} {
		acc := accountByID(t, result, id)
		assert.Equal(t, 90.0, acc.SuspicionScore)
		assert.Equal(t, []string{"cycle_length_3"}, acc.DetectedPatterns)
		assert.Equal(t, "RING_001", acc.RingID)
	}

	assert.Equal(t, models.AnalysisSummary{
		TotalAccountsAnalyzed:     3,
		SuspiciousAccountsFlagged: 3,
		FraudRingsDetected:        1,
		ProcessingTimeSeconds:     result.Summary.ProcessingTimeSeconds,
	}, result.Summary)
}

func TestAnalyze_CyclesOutsideRingRangeIgnored(t *testing.T) {
	// 2-cycle and 6-cycle never form rings.
	result := analyze(
		"A", "B", "B", "A",
		"P1", "P2", "P2", "P3", "P3", "P4", "P4", "P5", "P5", "P6", "P6", "P1",
	)
	assert.Empty(t, result.FraudRings)
	assert.Empty(t, result.SuspiciousAccounts)

	cfg := DefaultConfig()
	cfg.MaxCycleLength = 0
	report := NewDetector(cfg).Analyze(txs(
		"P1", "P2", "P2", "P3", "P3", "P4", "P4", "P5", "P5", "P6", "P6", "P1",
	))
	assert.Empty(t, report.Result.FraudRings)
	assert.Equal(t, 1, report.CycleStats.TotalCycles)
	assert.Equal(t, 6, report.CycleStats.LongestCycle)
}

func TestAnalyze_FiveCycleIsRing(t *testing.T) {
	result := analyze("A", "B", "B", "C", "C", "D", "D", "E", "E", "A")

	require.Len(t, result.FraudRings, 1)
	assert.Len(t, result.FraudRings[0].MemberAccounts, 5)
	assert.Equal(t, []string{"cycle_length_5"}, accountByID(t, result, "E").DetectedPatterns)
}

func TestAnalyze_FanIn(t *testing.T) {
	result := analyze(fanIn("X", 5)...)

	require.Len(t, result.SuspiciousAccounts, 1)
	acc := result.SuspiciousAccounts[0]
	assert.Equal(t, "X", acc.AccountID)
	assert.Equal(t, 80.0, acc.SuspicionScore)
	assert.Equal(t, []string{"fan_in_high"}, acc.DetectedPatterns)
	assert.Equal(t, "SMURFING", acc.RingID)
	assert.Equal(t, 6, result.Summary.TotalAccountsAnalyzed)
}

func TestAnalyze_FanInBelowThreshold(t *testing.T) {
	// Five rows but only four distinct senders.
	pairs := append(fanIn("X", 4), "X_IN1", "X")
	result := analyze(pairs...)

	assert.Empty(t, result.SuspiciousAccounts)
}

func TestAnalyze_FanOut(t *testing.T) {
	result := analyze(fanOut("Y", 6)...)

	acc := accountByID(t, result, "Y")
	assert.Equal(t, 75.0, acc.SuspicionScore)
	assert.Equal(t, []string{"fan_out_high"}, acc.DetectedPatterns)
	assert.Equal(t, "SMURFING", acc.RingID)
}

func TestAnalyze_FanInAndFanOutKeepsFanOut(t *testing.T) {
	pairs := append(fanIn("X", 5), fanOut("X", 5)...)
	result := analyze(pairs...)

	require.Len(t, result.SuspiciousAccounts, 1)
	acc := result.SuspiciousAccounts[0]
	assert.Equal(t, 75.0, acc.SuspicionScore)
	assert.Equal(t, []string{"fan_out_high"}, acc.DetectedPatterns)
	assert.Equal(t, "SMURFING", acc.RingID)
}

func TestAnalyze_OverlappingRingsLastRingWins(t *testing.T) {
	// A→B→C→A and A→B→C→D→A share A, B and C.
	result := analyze("A", "B", "B", "C", "C", "A", "C", "D", "D", "A")

	require.Len(t, result.FraudRings, 2)
	assert.Equal(t, "RING_001", result.FraudRings[0].RingID)
	assert.Equal(t, []string{"A", "B", "C"}, result.FraudRings[0].MemberAccounts)
	assert.Equal(t, "RING_002", result.FraudRings[1].RingID)
	assert.Equal(t, []string{"A", "B", "C", "D"}, result.FraudRings[1].MemberAccounts)

	require.Len(t, result.SuspiciousAccounts, 4)
	for _, id := range []string{"A", "B", "C", "D"} {
		acc := accountByID(t, result, id)
		assert.Equal(t, "RING_002", acc.RingID, id)
		assert.Equal(t, []string{"cycle_length_4"}, acc.DetectedPatterns, id)
	}
}

func TestAnalyze_SmurfingOverwritesRingMembership(t *testing.T) {
	pairs := append([]string{"A", "B", "B", "C", "C", "A"}, fanIn("A", 5)...)
	result := analyze(pairs...)

	require.Len(t, result.FraudRings, 1)

	a := accountByID(t, result, "A")
	assert.Equal(t, 80.0, a.SuspicionScore)
	assert.Equal(t, []string{"fan_in_high"}, a.DetectedPatterns)
	assert.Equal(t, "SMURFING", a.RingID)

	// B and C still carry the ring; A keeps its first-flagged position and
	// sorts after them on score.
	ids := make([]string, 0, len(result.SuspiciousAccounts))
	for _, acc := range result.SuspiciousAccounts {
		ids = append(ids, acc.AccountID)
	}
	assert.Equal(t, []string{"B", "C", "A"}, ids)
}

func TestAnalyze_RankingNonIncreasing(t *testing.T) {
	pairs := []string{"R1", "R2", "R2", "R3", "R3", "R1"}
	pairs = append(pairs, fanOut("OUT", 5)...)
	pairs = append(pairs, fanIn("IN", 5)...)
	result := analyze(pairs...)

	require.Len(t, result.SuspiciousAccounts, 5)
	for i := 1; i < len(result.SuspiciousAccounts); i++ {
		assert.GreaterOrEqual(t,
			result.SuspiciousAccounts[i-1].SuspicionScore,
			result.SuspiciousAccounts[i].SuspicionScore)
	}
	assert.Equal(t, "IN", result.SuspiciousAccounts[3].AccountID)
	assert.Equal(t, "OUT", result.SuspiciousAccounts[4].AccountID)
}

func TestAnalyze_MaxCyclesCapReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCycles = 1
	report := NewDetector(cfg).Analyze(txs(
		"A", "B", "B", "C", "C", "A",
		"X", "Y", "Y", "Z", "Z", "X",
	))

	assert.True(t, report.CyclesTruncated)
	assert.Len(t, report.Result.FraudRings, 1)
}

func randomLedger(seed int64, accounts, rows int) []models.Transaction {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Transaction, rows)
	for i := range out {
		out[i] = models.Transaction{
			SenderID:   fmt.Sprintf("ACC%02d", rng.Intn(accounts)),
			ReceiverID: fmt.Sprintf("ACC%02d", rng.Intn(accounts)),
		}
	}
	return out
}

func TestAnalyze_ResultInvariants(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		ledger := randomLedger(seed, 15, 45)
		report := NewDetector(DefaultConfig()).Analyze(ledger)
		result := report.Result

		seen := make(map[string]bool)
		for _, acc := range result.SuspiciousAccounts {
			assert.True(t, report.Graph.HasNode(acc.AccountID), "seed %d: %s not in graph", seed, acc.AccountID)
			assert.False(t, seen[acc.AccountID], "seed %d: %s listed twice", seed, acc.AccountID)
			seen[acc.AccountID] = true
		}

		for i, ring := range result.FraudRings {
			assert.Equal(t, FormatRingID(i+1), ring.RingID)
			assert.Equal(t, 95.0, ring.RiskScore)
			assert.Equal(t, "cycle", ring.PatternType)
			assert.GreaterOrEqual(t, len(ring.MemberAccounts), 3)
			assert.LessOrEqual(t, len(ring.MemberAccounts), 5)
		}

		var qualifying int
		for _, c := range mustCycles(report.Graph) {
			if len(c) >= 3 && len(c) <= 5 {
				qualifying++
			}
		}
		assert.Equal(t, qualifying, len(result.FraudRings), "seed %d", seed)

		for i := 1; i < len(result.SuspiciousAccounts); i++ {
			assert.GreaterOrEqual(t,
				result.SuspiciousAccounts[i-1].SuspicionScore,
				result.SuspiciousAccounts[i].SuspicionScore)
		}

		assert.Equal(t, report.Graph.NodeCount(), result.Summary.TotalAccountsAnalyzed)
		assert.Equal(t, len(result.SuspiciousAccounts), result.Summary.SuspiciousAccountsFlagged)
		assert.Equal(t, len(result.FraudRings), result.Summary.FraudRingsDetected)
	}
}

func mustCycles(g *graph.Graph) []graph.Cycle {
	cycles, _ := g.SimpleCycles(graph.CycleOptions{})
	return cycles
}

func TestAnalyze_Idempotent(t *testing.T) {
	ledger := randomLedger(42, 12, 40)
	d := NewDetector(DefaultConfig())

	first := d.Analyze(ledger).Result
	second := d.Analyze(ledger).Result
	first.Summary.ProcessingTimeSeconds = 0
	second.Summary.ProcessingTimeSeconds = 0

	assert.Equal(t, first, second)
}

func TestFormatRingID(t *testing.T) {
	assert.Equal(t, "RING_001", FormatRingID(1))
	assert.Equal(t, "RING_012", FormatRingID(12))
	assert.Equal(t, "RING_1000", FormatRingID(1000))
}

func TestBuildSnapshot(t *testing.T) {
	d := NewDetector(DefaultConfig())
	report := d.Analyze(txs("A", "B", "B", "C", "C", "A", "C", "D"))

	snap := BuildSnapshot(report.Graph, report.Result)

	require.Len(t, snap.Nodes, 4)
	for _, n := range snap.Nodes {
		assert.Equal(t, n.ID, n.Label)
		if n.ID == "D" {
			assert.False(t, n.Flagged)
			assert.Equal(t, DefaultNodeColor, n.Color)
		} else {
			assert.True(t, n.Flagged, n.ID)
			assert.Equal(t, FlaggedNodeColor, n.Color)
		}
	}
	assert.Equal(t, []models.GraphEdge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "A"},
		{From: "C", To: "D"},
	}, snap.Edges)
}

package heuristics

import (
	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Smurfing (Fan-In / Fan-Out) Detection
//
// Structuring splits funds across many small hops. In the collapsed graph it
// shows up as an account with many distinct counterparties:
//   - fan-in:  ≥ FanInThreshold distinct senders (collection account)
//   - fan-out: ≥ FanOutThreshold distinct receivers (distribution account)
//
// Nodes are visited in graph order and the fan-in check runs before the
// fan-out check, so an account tripping both ends up with the fan-out record
// after merge. Both candidates are still emitted; the merge decides.

func detectSmurfing(g *graph.Graph, cfg Config) []models.SuspiciousAccount {
	candidates := make([]models.SuspiciousAccount, 0)

	for _, node := range g.Nodes() {
		if g.InDegree(node) >= cfg.FanInThreshold {
			candidates = append(candidates, models.SuspiciousAccount{
				AccountID:        node,
				SuspicionScore:   cfg.FanInScore,
				DetectedPatterns: []string{models.PatternFanInHigh},
				RingID:           models.RingIDSmurfing,
			})
		}

		if g.OutDegree(node) >= cfg.FanOutThreshold {
			candidates = append(candidates, models.SuspiciousAccount{
				AccountID:        node,
				SuspicionScore:   cfg.FanOutScore,
				DetectedPatterns: []string{models.PatternFanOutHigh},
				RingID:           models.RingIDSmurfing,
			})
		}
	}

	return candidates
}

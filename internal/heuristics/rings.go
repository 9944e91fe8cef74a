package heuristics

import (
	"fmt"

	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Circular Flow (Fraud Ring) Detection
//
// Money cycled A → B → C → A through a handful of accounts is a classic
// layering pattern. Every simple cycle whose length falls inside
// [RingMinLength, RingMaxLength] becomes its own ring; rings sharing members
// are neither merged nor deduplicated.
//
// Each member of a ring gets a candidate record tagged cycle_length_L. When an
// account sits in several rings the candidate from the last ring wins at
// merge time.

// FormatRingID renders the sequential ring id for the n-th ring (1-based).
func FormatRingID(n int) string {
	return fmt.Sprintf("RING_%03d", n)
}

// CyclePattern returns the detected_patterns tag for a cycle of the given length.
func CyclePattern(length int) string {
	return fmt.Sprintf("cycle_length_%d", length)
}

// ringPass is the output of the cycle pass.
type ringPass struct {
	rings      []models.FraudRing
	candidates []models.SuspiciousAccount
	stats      graph.CycleStats
	truncated  bool
}

func detectRings(g *graph.Graph, cfg Config) ringPass {
	pass := ringPass{
		rings:      make([]models.FraudRing, 0),
		candidates: make([]models.SuspiciousAccount, 0),
	}

	pass.truncated = g.EachSimpleCycle(cfg.cycleOptions(), func(c graph.Cycle) bool {
		pass.stats.Add(c)

		length := len(c)
		if length < cfg.RingMinLength || length > cfg.RingMaxLength {
			return true
		}

		ringID := FormatRingID(len(pass.rings) + 1)
		members := make([]string, length)
		copy(members, c)

		pass.rings = append(pass.rings, models.FraudRing{
			RingID:         ringID,
			MemberAccounts: members,
			PatternType:    models.PatternTypeCycle,
			RiskScore:      cfg.RingRiskScore,
		})

		for _, acc := range members {
			pass.candidates = append(pass.candidates, models.SuspiciousAccount{
				AccountID:        acc,
				SuspicionScore:   cfg.RingMemberScore,
				DetectedPatterns: []string{CyclePattern(length)},
				RingID:           ringID,
			})
		}
		return true
	})

	return pass
}

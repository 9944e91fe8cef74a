package heuristics

import "github.com/rawblock/ringwatch-engine/internal/graph"

// Config holds the detection thresholds, fixed scores and cycle search bounds.
type Config struct {
	RingMinLength   int     // shortest cycle that forms a ring
	RingMaxLength   int     // longest cycle that forms a ring
	RingRiskScore   float64 // risk_score on every ring
	RingMemberScore float64 // suspicion_score written for ring members
	FanInThreshold  int     // distinct senders that trip fan_in_high
	FanInScore      float64 // suspicion_score for fan_in_high
	FanOutThreshold int     // distinct receivers that trip fan_out_high
	FanOutScore     float64 // suspicion_score for fan_out_high
	MaxCycleLength  int     // cycle search depth, 0 = unbounded
	MaxCycles       int     // cycle search cap, 0 = unbounded
}

// DefaultConfig returns the production thresholds. The cycle search depth
// matches RingMaxLength: longer cycles never become rings and the bounded
// search yields the shorter ones in the same order.
func DefaultConfig() Config {
	return Config{
		RingMinLength:   3,
		RingMaxLength:   5,
		RingRiskScore:   95.0,
		RingMemberScore: 90.0,
		FanInThreshold:  5,
		FanInScore:      80.0,
		FanOutThreshold: 5,
		FanOutScore:     75.0,
		MaxCycleLength:  5,
	}
}

func (c Config) cycleOptions() graph.CycleOptions {
	return graph.CycleOptions{
		MaxLength: c.MaxCycleLength,
		MaxCycles: c.MaxCycles,
	}
}

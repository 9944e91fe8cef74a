package heuristics

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Pattern Detector
//
// Runs two independent passes over one transaction graph and merges their
// findings into a single record per account:
//
//   Pass A  circular flow (fraud rings)   → ring list + member candidates
//   Pass B  smurfing (fan-in / fan-out)   → candidates
//
// Merge order is fixed: Pass A candidates in ring order, then Pass B
// candidates in node order, each overwriting any earlier record for the same
// account. A smurfing hit therefore erases ring membership on that account,
// and of two overlapping rings only the later one is remembered per member.

// Report is a detector run plus diagnostics that are not part of the
// exported result.
type Report struct {
	Result          models.AnalysisResult
	Graph           *graph.Graph
	CycleStats      graph.CycleStats
	CyclesTruncated bool
}

// Detector is stateless between runs and safe for concurrent use.
type Detector struct {
	cfg    Config
	logger logrus.FieldLogger
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, logger: logrus.StandardLogger()}
}

// WithLogger returns a copy of the detector that logs to l.
func (d *Detector) WithLogger(l logrus.FieldLogger) *Detector {
	cp := *d
	cp.logger = l
	return &cp
}

// Config returns the detector thresholds.
func (d *Detector) Config() Config { return d.cfg }

// Analyze builds the transaction graph and runs both detection passes.
// The elapsed time covers graph construction through ranking.
func (d *Detector) Analyze(txs []models.Transaction) Report {
	start := time.Now()
	g := graph.Build(txs)
	return d.detect(g, start)
}

// AnalyzeGraph runs both passes over an already built graph.
func (d *Detector) AnalyzeGraph(g *graph.Graph) Report {
	return d.detect(g, time.Now())
}

func (d *Detector) detect(g *graph.Graph, start time.Time) Report {
	rings := detectRings(g, d.cfg)
	if rings.truncated {
		d.logger.WithFields(logrus.Fields{
			"max_cycles":    d.cfg.MaxCycles,
			"cycles_walked": rings.stats.TotalCycles,
		}).Warn("[Detector] cycle enumeration cap reached, ring list may be incomplete")
	}

	smurfs := detectSmurfing(g, d.cfg)

	table := newRecordTable()
	table.apply(rings.candidates)
	table.apply(smurfs)

	accounts := table.ranked()
	result := models.AnalysisResult{
		SuspiciousAccounts: accounts,
		FraudRings:         rings.rings,
		Summary: models.AnalysisSummary{
			TotalAccountsAnalyzed:     g.NodeCount(),
			SuspiciousAccountsFlagged: len(accounts),
			FraudRingsDetected:        len(rings.rings),
			ProcessingTimeSeconds:     roundSeconds(time.Since(start)),
		},
	}

	d.logger.WithFields(logrus.Fields{
		"accounts":        g.NodeCount(),
		"edges":           g.EdgeCount(),
		"cycles":          rings.stats.TotalCycles,
		"rings":           len(rings.rings),
		"smurf_hits":      len(smurfs),
		"flagged":         len(accounts),
		"elapsed_seconds": result.Summary.ProcessingTimeSeconds,
	}).Debug("[Detector] analysis complete")

	return Report{
		Result:          result,
		Graph:           g,
		CycleStats:      rings.stats,
		CyclesTruncated: rings.truncated,
	}
}

// roundSeconds converts d to seconds rounded to 2 decimal places.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

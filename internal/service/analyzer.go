package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/graph"
	"github.com/rawblock/ringwatch-engine/internal/heuristics"
	"github.com/rawblock/ringwatch-engine/internal/ingest"
	"github.com/rawblock/ringwatch-engine/internal/metrics"
	"github.com/rawblock/ringwatch-engine/internal/store"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Input sources, used as a metrics label and in stream events.
const (
	SourceUpload = "upload"
	SourceJSON   = "json"
	SourceLedger = "ledger"
	SourceCLI    = "cli"
)

// EventAnalysisComplete is the stream event type sent after every stored run.
const EventAnalysisComplete = "analysis_complete"

// Broadcaster pushes a serialized event to live dashboard clients.
type Broadcaster interface {
	Broadcast(data []byte)
}

// LedgerSource loads transactions from persistent storage.
type LedgerSource interface {
	LoadTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
}

// AnalysisEvent is the payload of an analysis_complete stream message.
type AnalysisEvent struct {
	Type       string                 `json:"type"`
	AnalysisID string                 `json:"analysisId"`
	Source     string                 `json:"source"`
	Summary    models.AnalysisSummary `json:"summary"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Outcome is everything one analysis run produced.
type Outcome struct {
	AnalysisID      string
	Result          models.AnalysisResult
	Graph           models.GraphSnapshot
	CycleStats      graph.CycleStats
	CyclesTruncated bool
}

// Analyzer runs the detector and publishes its output: the result store,
// metrics and the live stream.
type Analyzer struct {
	detector *heuristics.Detector
	results  *store.ResultStore
	metrics  *metrics.Registry
	stream   Broadcaster
	logger   logrus.FieldLogger
}

// NewAnalyzer wires the pipeline. reg and stream may be nil.
func NewAnalyzer(detector *heuristics.Detector, results *store.ResultStore, reg *metrics.Registry, stream Broadcaster) *Analyzer {
	return &Analyzer{
		detector: detector,
		results:  results,
		metrics:  reg,
		stream:   stream,
		logger:   logrus.StandardLogger(),
	}
}

// DetectorConfig returns the thresholds in effect.
func (a *Analyzer) DetectorConfig() heuristics.Config {
	return a.detector.Config()
}

// Results returns the store holding the latest run.
func (a *Analyzer) Results() *store.ResultStore {
	return a.results
}

// Run validates txs, detects rings and smurfing, and replaces the stored
// result. Invalid input leaves the previous result untouched.
func (a *Analyzer) Run(ctx context.Context, source string, txs []models.Transaction) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if err := ingest.Validate(txs); err != nil {
		a.Reject(source, err)
		return Outcome{}, err
	}

	id := uuid.NewString()
	log := a.logger.WithFields(logrus.Fields{
		"analysis_id":  id,
		"source":       source,
		"transactions": len(txs),
	})

	start := time.Now()
	report := a.detector.WithLogger(log).Analyze(txs)
	elapsed := time.Since(start)

	a.results.Set(store.Snapshot{
		AnalysisID: id,
		Source:     source,
		Result:     report.Result,
	})

	out := Outcome{
		AnalysisID:      id,
		Result:          report.Result,
		Graph:           heuristics.BuildSnapshot(report.Graph, report.Result),
		CycleStats:      report.CycleStats,
		CyclesTruncated: report.CyclesTruncated,
	}

	a.observeSuccess(source, elapsed, report)
	a.publish(id, source, report.Result.Summary)

	log.WithFields(logrus.Fields{
		"accounts": report.Result.Summary.TotalAccountsAnalyzed,
		"flagged":  report.Result.Summary.SuspiciousAccountsFlagged,
		"rings":    report.Result.Summary.FraudRingsDetected,
		"seconds":  report.Result.Summary.ProcessingTimeSeconds,
	}).Info("[Analyzer] Analysis stored")

	return out, nil
}

// RunLedger loads up to limit rows (0 = all) from src and analyzes them.
func (a *Analyzer) RunLedger(ctx context.Context, src LedgerSource, limit int) (Outcome, error) {
	txs, err := src.LoadTransactions(ctx, limit)
	if err != nil {
		a.Reject(SourceLedger, err)
		return Outcome{}, fmt.Errorf("load ledger: %w", err)
	}
	return a.Run(ctx, SourceLedger, txs)
}

// Export renders the latest stored result for download.
func (a *Analyzer) Export() ([]byte, error) {
	return a.results.Export()
}

// Reject records a run that failed before detection, such as an unreadable
// upload.
func (a *Analyzer) Reject(source string, err error) {
	status := metrics.StatusError
	if ingest.IsInputFormatError(err) {
		status = metrics.StatusInvalid
	}
	a.logger.WithFields(logrus.Fields{
		"source": source,
		"status": status,
	}).WithError(err).Warn("[Analyzer] Analysis rejected")

	if a.metrics != nil {
		a.metrics.ObserveAnalysis(metrics.AnalysisObservation{Source: source, Status: status})
	}
}

func (a *Analyzer) observeSuccess(source string, elapsed time.Duration, report heuristics.Report) {
	if a.metrics == nil {
		return
	}
	patterns := make([]string, 0, len(report.Result.SuspiciousAccounts))
	for _, acc := range report.Result.SuspiciousAccounts {
		patterns = append(patterns, acc.DetectedPatterns...)
	}
	a.metrics.ObserveAnalysis(metrics.AnalysisObservation{
		Source:          source,
		Status:          metrics.StatusOK,
		Duration:        elapsed,
		Accounts:        report.Graph.NodeCount(),
		Edges:           report.Graph.EdgeCount(),
		Rings:           len(report.Result.FraudRings),
		Patterns:        patterns,
		Cycles:          report.CycleStats.TotalCycles,
		CyclesTruncated: report.CyclesTruncated,
	})
}

func (a *Analyzer) publish(id, source string, summary models.AnalysisSummary) {
	if a.stream == nil {
		return
	}
	payload, err := json.Marshal(AnalysisEvent{
		Type:       EventAnalysisComplete,
		AnalysisID: id,
		Source:     source,
		Summary:    summary,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		a.logger.WithError(err).Error("[Analyzer] Failed to encode stream event")
		return
	}
	a.stream.Broadcast(payload)
	if a.metrics != nil {
		a.metrics.StreamEventsTotal.WithLabelValues(EventAnalysisComplete).Inc()
	}
}

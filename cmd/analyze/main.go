package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/heuristics"
	"github.com/rawblock/ringwatch-engine/internal/ingest"
	"github.com/rawblock/ringwatch-engine/internal/service"
	"github.com/rawblock/ringwatch-engine/internal/store"
)

func main() {
	in := flag.String("in", "", "ledger CSV with sender_id and receiver_id columns (required)")
	out := flag.String("out", store.ExportFilename, "where to write the JSON report, - for stdout")
	maxLen := flag.Int("max-cycle-length", heuristics.DefaultConfig().MaxCycleLength, "cycle search depth, 0 = unbounded")
	maxCycles := flag.Int("max-cycles", 0, "stop cycle search after this many cycles, 0 = unbounded")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *maxLen, *maxCycles); err != nil {
		logrus.Fatalf("analyze: %v", err)
	}
}

func run(inPath, outPath string, maxLen, maxCycles int) error {
	if maxLen > 0 && maxLen < 5 {
		return fmt.Errorf("-max-cycle-length %d would hide rings of length up to 5", maxLen)
	}

	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	txs, err := ingest.ReadCSV(f)
	if err != nil {
		return err
	}

	cfg := heuristics.DefaultConfig()
	cfg.MaxCycleLength = maxLen
	cfg.MaxCycles = maxCycles
	analyzer := service.NewAnalyzer(heuristics.NewDetector(cfg), store.NewResultStore(), nil, nil)

	outcome, err := analyzer.Run(context.Background(), service.SourceCLI, txs)
	if err != nil {
		return err
	}
	if outcome.CyclesTruncated {
		logrus.Warnf("cycle search stopped after %d cycles; ring list may be incomplete", maxCycles)
	}

	data, err := analyzer.Export()
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if outPath == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	s := outcome.Result.Summary
	logrus.WithFields(logrus.Fields{
		"accounts": s.TotalAccountsAnalyzed,
		"flagged":  s.SuspiciousAccountsFlagged,
		"rings":    s.FraudRingsDetected,
		"out":      outPath,
	}).Info("Report written")
	return nil
}

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// ExportFilename is the attachment name of the downloadable report.
const ExportFilename = "fraud_detection_output.json"

// ErrNoData is returned when export is requested before any analysis has
// completed.
var ErrNoData = errors.New("no data available")

// Snapshot is the stored result together with the run that produced it.
type Snapshot struct {
	AnalysisID string
	Source     string
	StoredAt   time.Time
	Result     models.AnalysisResult
}

// ResultStore holds the most recent analysis result. Each Set replaces the
// previous snapshot wholesale; concurrent writers resolve last-writer-wins.
type ResultStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewResultStore creates an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Set replaces the stored snapshot.
func (s *ResultStore) Set(snap Snapshot) {
	if snap.StoredAt.IsZero() {
		snap.StoredAt = time.Now()
	}
	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
}

// Get returns the stored snapshot, or false if no analysis has completed.
func (s *ResultStore) Get() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

// Export renders the stored result as a 4-space indented JSON document.
func (s *ResultStore) Export() ([]byte, error) {
	snap, ok := s.Get()
	if !ok {
		return nil, ErrNoData
	}
	return MarshalResult(snap.Result)
}

// MarshalResult encodes a result the way the download endpoint serves it.
func MarshalResult(result models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("encode analysis result: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

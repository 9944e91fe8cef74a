package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// Required ledger columns.
const (
	ColumnSender   = "sender_id"
	ColumnReceiver = "receiver_id"
)

// InputFormatError reports a ledger that cannot be analyzed. Line is 1-based
// and counts the header; it is 0 for problems with the header itself.
type InputFormatError struct {
	Line   int
	Field  string
	Reason string
}

func (e *InputFormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("invalid ledger header: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid ledger row at line %d: %s %s", e.Line, e.Field, e.Reason)
}

// IsInputFormatError reports whether err is (or wraps) an InputFormatError.
func IsInputFormatError(err error) bool {
	var ife *InputFormatError
	return errors.As(err, &ife)
}

// ReadCSV parses a ledger export. The header must name sender_id and
// receiver_id (any position, case and surrounding spaces ignored); other
// columns such as amount or timestamp are skipped. Account ids are kept
// verbatim. Fully blank rows are skipped; any other row missing either id
// aborts the whole read.
func ReadCSV(r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &InputFormatError{Field: ColumnSender, Reason: "column missing (empty file)"}
	}
	if err != nil {
		return nil, wrapReadError(err)
	}

	senderCol, receiverCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case ColumnSender:
			senderCol = i
		case ColumnReceiver:
			receiverCol = i
		}
	}
	if senderCol < 0 {
		return nil, &InputFormatError{Field: ColumnSender, Reason: "column missing"}
	}
	if receiverCol < 0 {
		return nil, &InputFormatError{Field: ColumnReceiver, Reason: "column missing"}
	}

	txs := make([]models.Transaction, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapReadError(err)
		}
		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}

		sender := field(record, senderCol)
		if strings.TrimSpace(sender) == "" {
			return nil, &InputFormatError{Line: line, Field: ColumnSender, Reason: "is empty"}
		}
		receiver := field(record, receiverCol)
		if strings.TrimSpace(receiver) == "" {
			return nil, &InputFormatError{Line: line, Field: ColumnReceiver, Reason: "is empty"}
		}

		txs = append(txs, models.Transaction{SenderID: sender, ReceiverID: receiver})
	}

	return txs, nil
}

// Validate checks transactions that arrived through a structured channel
// (JSON body, database) with the same rules ReadCSV applies. Line numbers
// are 1-based positions in txs.
func Validate(txs []models.Transaction) error {
	for i, tx := range txs {
		if strings.TrimSpace(tx.SenderID) == "" {
			return &InputFormatError{Line: i + 1, Field: ColumnSender, Reason: "is empty"}
		}
		if strings.TrimSpace(tx.ReceiverID) == "" {
			return &InputFormatError{Line: i + 1, Field: ColumnReceiver, Reason: "is empty"}
		}
	}
	return nil
}

// wrapReadError turns CSV syntax errors into InputFormatErrors; anything
// else (I/O failures) is passed through wrapped.
func wrapReadError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &InputFormatError{Line: pe.Line, Field: "row", Reason: pe.Err.Error()}
	}
	return fmt.Errorf("read ledger: %w", err)
}

func field(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return record[col]
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

package db

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/ingest"
	"github.com/rawblock/ringwatch-engine/pkg/models"
)

// schemaSQL is compiled into the binary so schema init works from any
// working directory.
//
//go:embed schema.sql
var schemaSQL string

// DefaultLedgerTable is the table created by schema.sql.
const DefaultLedgerTable = "ledger_transactions"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LedgerStore reads transfer rows from PostgreSQL.
type LedgerStore struct {
	pool  *pgxpool.Pool
	table string
}

// Connect initializes the pgx connection pool and verifies it with a ping.
// An empty table name selects DefaultLedgerTable.
func Connect(ctx context.Context, connStr, table string) (*LedgerStore, error) {
	if table == "" {
		table = DefaultLedgerTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name %q", table)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	logrus.WithField("table", table).Info("[DB] Connected to PostgreSQL ledger")
	return &LedgerStore{pool: pool, table: table}, nil
}

// Close gracefully closes the connection pool
func (s *LedgerStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Table returns the ledger table the store reads from.
func (s *LedgerStore) Table() string {
	return s.table
}

// Ping reports whether the database is reachable.
func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *LedgerStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}
	logrus.Info("[DB] Ledger schema initialized")
	return nil
}

// LoadTransactions reads (sender_id, receiver_id) pairs ordered by id. A
// positive limit caps the number of rows. Rows with a NULL or empty id are
// rejected as an *ingest.InputFormatError.
func (s *LedgerStore) LoadTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	query := ledgerQuery(s.table, limit)

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query, limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0, 1024)
	for rows.Next() {
		var (
			id       int64
			sender   pgtype.Text
			receiver pgtype.Text
		)
		if err := rows.Scan(&id, &sender, &receiver); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		tx, err := ledgerRow(id, sender, receiver)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ledger rows: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"table": s.table,
		"rows":  len(txs),
	}).Debug("[DB] Ledger loaded")
	return txs, nil
}

func ledgerQuery(table string, limit int) string {
	q := fmt.Sprintf("SELECT id, sender_id, receiver_id FROM %s ORDER BY id", table)
	if limit > 0 {
		q += " LIMIT $1"
	}
	return q
}

func ledgerRow(id int64, sender, receiver pgtype.Text) (models.Transaction, error) {
	if !sender.Valid || sender.String == "" {
		return models.Transaction{}, &ingest.InputFormatError{
			Line: int(id), Field: ingest.ColumnSender, Reason: "is NULL or empty",
		}
	}
	if !receiver.Valid || receiver.String == "" {
		return models.Transaction{}, &ingest.InputFormatError{
			Line: int(id), Field: ingest.ColumnReceiver, Reason: "is NULL or empty",
		}
	}
	return models.Transaction{SenderID: sender.String, ReceiverID: receiver.String}, nil
}

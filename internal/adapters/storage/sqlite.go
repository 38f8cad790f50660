package storage

// sqlite.go: historial de runs.
//
//   - `runs`: una fila por invocación (run_id UUID), con conteos por status.
//   - `outcomes`: una fila por trade del run, incluidos no_data y failed,
//     para poder auditar omisiones a posteriori.
//   - Fechas como TEXT (yyyy-MM-dd / timestamp de ancho fijo) para no depender
//     de la conversión de DATETIME del driver. El ancho fijo mantiene el orden
//     lexicográfico igual al cronológico.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    end_date   TEXT    NOT NULL,
    created_at TEXT    NOT NULL,
    computed   INTEGER NOT NULL DEFAULT 0,
    no_data    INTEGER NOT NULL DEFAULT 0,
    failed     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id            TEXT    NOT NULL REFERENCES runs(run_id),
    idx               INTEGER NOT NULL,
    symbol            TEXT    NOT NULL,
    purchase_date     TEXT    NOT NULL,
    status            TEXT    NOT NULL,
    annualized_return REAL    NOT NULL DEFAULT 0,
    error             TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

var _ ports.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveReport persiste el run y todos sus outcomes en una transacción.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report domain.Report) error {
	if report.RunID == "" {
		return errors.New("storage.SaveReport: empty run id")
	}
	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveReport: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, end_date, created_at, computed, no_data, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.EndDate.Format(domain.DateLayout),
		createdAt.UTC().Format(timestampLayout),
		report.Count(domain.OutcomeComputed),
		report.Count(domain.OutcomeNoData),
		report.Count(domain.OutcomeFailed),
	); err != nil {
		return fmt.Errorf("storage.SaveReport: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes
			(run_id, idx, symbol, purchase_date, status, annualized_return, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveReport: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range report.Outcomes {
		errMsg := ""
		if o.Err != nil {
			errMsg = o.Err.Error()
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID,
			o.Index,
			o.Trade.Symbol,
			o.Trade.PurchaseDate.Format(domain.DateLayout),
			string(o.Status),
			o.Return.AnnualizedReturn,
			errMsg,
		); err != nil {
			return fmt.Errorf("storage.SaveReport: insert outcome %s: %w", o.Trade.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveReport: commit: %w", err)
	}
	return nil
}

// LatestReport devuelve el run más reciente con sus outcomes en orden de input.
func (s *SQLiteStorage) LatestReport(ctx context.Context) (domain.Report, bool, error) {
	var report domain.Report
	var endDate, createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, end_date, created_at FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&report.RunID, &endDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, false, nil
	}
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("storage.LatestReport: query run: %w", err)
	}
	report.EndDate, _ = domain.ParseDate(endDate)
	report.CreatedAt, _ = time.Parse(timestampLayout, createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, symbol, purchase_date, status, annualized_return, error
		FROM outcomes
		WHERE run_id = ?
		ORDER BY idx
	`, report.RunID)
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("storage.LatestReport: query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.TradeOutcome
		var purchase, status, errMsg string
		var ar float64

		if err := rows.Scan(&o.Index, &o.Trade.Symbol, &purchase, &status, &ar, &errMsg); err != nil {
			return domain.Report{}, false, fmt.Errorf("storage.LatestReport: scan row: %w", err)
		}

		o.Trade.PurchaseDate, _ = domain.ParseDate(purchase)
		o.Status = domain.OutcomeStatus(status)
		if o.Status == domain.OutcomeComputed {
			o.Return = domain.AnnualizedReturn{
				Symbol:                     o.Trade.Symbol,
				AnnualizedReturn:           ar,
				AnnualizedReturnPercentage: ar * 100,
			}
		}
		if errMsg != "" {
			o.Err = errors.New(errMsg)
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Report{}, false, fmt.Errorf("storage.LatestReport: rows: %w", err)
	}
	return report, true, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

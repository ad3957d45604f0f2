package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"expenses/internal/core"
	"expenses/internal/log"

	_ "modernc.org/sqlite"
)

// position keeps file order and tolerates duplicate ids left by the
// migration pass; amount is stored as text to stay exact.
const createExpensesTable = `
CREATE TABLE IF NOT EXISTS expenses (
	position INTEGER PRIMARY KEY,
	id       INTEGER NOT NULL,
	amount   TEXT    NOT NULL,
	category TEXT    NOT NULL,
	note     TEXT    NOT NULL,
	date     TEXT    NOT NULL
)`

// SQLiteExporter mirrors the record sequence into a SQLite database.
type SQLiteExporter struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

func NewSQLiteExporter(dbPath string, logger *log.Logger) (*SQLiteExporter, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(createExpensesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create expenses table: %w", err)
	}

	return &SQLiteExporter{
		db:     db,
		path:   dbPath,
		logger: logger.WithComponent(log.ComponentExport),
	}, nil
}

func (x *SQLiteExporter) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}

// Export replaces the table contents with expenses in one transaction.
func (x *SQLiteExporter) Export(ctx context.Context, expenses []core.Expense) (int, error) {
	if err := x.replace(ctx, expenses); err != nil {
		x.logger.ErrorContext(ctx, "Failed to export expenses",
			log.NewFields().WithOperation(log.OpExport).WithPath(x.path).WithError(err).ToSlice()...)
		return 0, err
	}

	fields := log.NewFields().WithOperation(log.OpExport).WithPath(x.path)
	fields[log.FieldCount] = len(expenses)
	x.logger.InfoContext(ctx, "Expenses exported to SQLite", fields.ToSlice()...)

	return len(expenses), nil
}

func (x *SQLiteExporter) replace(ctx context.Context, expenses []core.Expense) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (position, id, amount, category, note, date) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range expenses {
		if _, err := stmt.ExecContext(ctx, i+1, e.ID, e.Amount.String(), e.Category, e.Note, e.Date.String()); err != nil {
			return fmt.Errorf("insert expense %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Exported reads the table back in file order.
func (x *SQLiteExporter) Exported(ctx context.Context) ([]core.Expense, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT id, amount, category, note, date FROM expenses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e      core.Expense
			amount string
			date   string
		)
		if err := rows.Scan(&e.ID, &amount, &e.Category, &e.Note, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse amount of expense %d: %w", e.ID, err)
		}
		if e.Date, err = core.ParseTimestamp(date); err != nil {
			return nil, fmt.Errorf("parse date of expense %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"duebook/internal/core"
	"duebook/internal/persistence"

	_ "modernc.org/sqlite"
)

// isoLayout keeps dates sortable inside the database.
const isoLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

var _ persistence.Repository = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements persistence.RecordLoader
func (r *Repository) Load(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, start_date, next_due_date, amount, description
		FROM billing_records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query billing records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec              core.Record
			start, next, amt string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &start, &next, &amt, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan billing record: %w", err)
		}
		if rec.StartDate, err = parseISO(start); err != nil {
			return nil, fmt.Errorf("record %d start_date %q: %w", rec.ID, start, err)
		}
		if rec.NextDueDate, err = parseISO(next); err != nil {
			return nil, fmt.Errorf("record %d next_due_date %q: %w", rec.ID, next, err)
		}
		if rec.Amount, err = decimal.NewFromString(amt); err != nil {
			return nil, fmt.Errorf("record %d amount %q: %w", rec.ID, amt, core.ErrInvalidAmount)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billing records: %w", err)
	}

	return records, nil
}

// Save implements persistence.RecordSaver. The table is replaced inside a
// single transaction.
func (r *Repository) Save(ctx context.Context, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM billing_records`); err != nil {
		return fmt.Errorf("clear billing records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO billing_records (id, position, name, start_date, next_due_date, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			i,
			rec.Name,
			rec.StartDate.Format(isoLayout),
			rec.NextDueDate.Format(isoLayout),
			rec.Amount.String(),
			rec.Description,
		)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit billing records: %w", err)
	}

	slog.DebugContext(ctx, "Billing records saved to SQLite", "count", len(records))
	return nil
}

func parseISO(s string) (core.Date, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
	}
	d := core.Date{Time: t}
	if err := d.Validate(); err != nil {
		return core.Date{}, &core.ValidationError{Field: "date", Err: err}
	}
	return d, nil
}

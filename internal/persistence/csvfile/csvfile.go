// Package csvfile persists billing records to a flat CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"duebook/internal/core"
	"duebook/internal/persistence"
)

type Store struct {
	path string
}

var _ persistence.Repository = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads every row of the file. Any malformed row aborts the whole load.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.DebugContext(ctx, "No data file yet", "path", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	headerRow, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header, err := persistence.ParseHeader(headerRow)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []core.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ParseError already names the line.
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec, err := header.DecodeRow(row)
		if err != nil {
			// Quoted fields may span lines, so ask the reader where the row began.
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	slog.DebugContext(ctx, "Loaded records from CSV", "path", s.path, "count", len(records))
	return records, nil
}

// Save rewrites the whole file. The snapshot is written to a temporary file
// in the same directory and renamed over the target.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeRecords(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	slog.DebugContext(ctx, "Saved records to CSV", "path", s.path, "count", len(records))
	return nil
}

func writeRecords(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(persistence.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(persistence.EncodeRow(rec)); err != nil {
			return fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

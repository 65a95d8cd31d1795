// Package sheets keeps the billing records in a Google Sheets tab: one
// header row followed by one row per client.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"duebook/internal/core"
	"duebook/internal/persistence"
)

const DefaultSheetName = "Clients"

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ persistence.Repository = (*Client)(nil)

// New creates a Sheets client authenticated with service account
// credentials, given inline or as a file path.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", opts.CredentialsFile, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) dataRange() string {
	return fmt.Sprintf("%s!A:%c", c.sheetName, 'A'+len(persistence.Columns)-1)
}

// Load implements persistence.RecordLoader
func (c *Client) Load(ctx context.Context) ([]core.Record, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}
	return DecodeValues(resp.Values)
}

// Save implements persistence.RecordSaver. The range is cleared first so
// deleted clients do not linger below the new last row.
func (c *Client) Save(ctx context.Context, records []core.Record) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.dataRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	vr := &gsheet.ValueRange{Values: EncodeValues(records)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}

	slog.DebugContext(ctx, "Billing records written to sheet", "sheet", c.sheetName, "count", len(records))
	return nil
}

// EncodeValues builds the header plus one row per record.
func EncodeValues(records []core.Record) [][]any {
	out := make([][]any, 0, len(records)+1)
	out = append(out, toAny(persistence.Columns))
	for _, rec := range records {
		out = append(out, toAny(persistence.EncodeRow(rec)))
	}
	return out
}

// DecodeValues parses a values grid as returned by the Sheets API. Blank
// rows are skipped; any other bad row aborts the load.
func DecodeValues(values [][]any) ([]core.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	header, err := persistence.ParseHeader(toStrings(values[0]))
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []core.Record
	for i, raw := range values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		rec, err := header.DecodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

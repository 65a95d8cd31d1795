package persistence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"duebook/internal/core"
)

// Column names shared by the tabular adapters (CSV file and spreadsheet).
const (
	ColID          = "id"
	ColName        = "name"
	ColStartDate   = "start_date"
	ColNextDueDate = "next_due_date"
	ColAmount      = "amount"
	ColDescription = "description"
)

// Columns is the header row, in write order.
var Columns = []string{ColID, ColName, ColStartDate, ColNextDueDate, ColAmount, ColDescription}

var ErrMissingColumn = errors.New("missing column")

// Header maps column names to their position in a header row.
type Header map[string]int

// ParseHeader checks that every known column is present.
func ParseHeader(row []string) (Header, error) {
	h := make(Header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range Columns {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return h, nil
}

// EncodeRow renders a record as text cells in Columns order.
func EncodeRow(r core.Record) []string {
	return []string{
		strconv.Itoa(r.ID),
		r.Name,
		r.StartDate.String(),
		r.NextDueDate.String(),
		r.Amount.String(),
		r.Description,
	}
}

// DecodeRow parses one data row. Missing trailing cells read as empty.
func (h Header) DecodeRow(row []string) (core.Record, error) {
	get := func(col string) string {
		idx := h[col]
		if idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	id, err := strconv.Atoi(strings.TrimSpace(get(ColID)))
	if err != nil || id < 1 {
		return core.Record{}, fmt.Errorf("invalid id %q", get(ColID))
	}
	start, err := core.ParseDate(get(ColStartDate))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s %q: %w", ColStartDate, get(ColStartDate), err)
	}
	next, err := core.ParseDate(get(ColNextDueDate))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s %q: %w", ColNextDueDate, get(ColNextDueDate), err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(get(ColAmount)))
	if err != nil {
		return core.Record{}, fmt.Errorf("%s %q: %w", ColAmount, get(ColAmount), core.ErrInvalidAmount)
	}

	return core.Record{
		ID:          id,
		Name:        get(ColName),
		StartDate:   start,
		NextDueDate: next,
		Amount:      amount,
		Description: get(ColDescription),
	}, nil
}

// Package store holds client billing records in memory.
//
// The Store is not safe for concurrent use; the interactive tool issues one
// operation at a time.
package store

import (
	"fmt"

	"github.com/shopspring/decimal"

	"duebook/internal/core"
)

// Store is an in-memory collection of billing records keyed by id.
// Iteration follows insertion order.
type Store struct {
	records map[int]*core.Record
	order   []int
	nextID  int
}

// NewRecord carries the values for Create.
type NewRecord struct {
	Name        string
	StartDate   core.Date
	NextDueDate core.Date
	Amount      decimal.Decimal
	Description string
}

func New() *Store {
	return &Store{
		records: make(map[int]*core.Record),
		nextID:  1,
	}
}

// Replace discards the current content and loads records in the given
// order. The next id becomes max(ids)+1.
func (s *Store) Replace(records []core.Record) error {
	byID := make(map[int]*core.Record, len(records))
	order := make([]int, 0, len(records))
	next := 1
	for _, r := range records {
		if r.ID < 1 {
			return fmt.Errorf("record %q has invalid id %d", r.Name, r.ID)
		}
		if _, dup := byID[r.ID]; dup {
			return fmt.Errorf("duplicate record id %d", r.ID)
		}
		rec := r
		byID[r.ID] = &rec
		order = append(order, r.ID)
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	s.records = byID
	s.order = order
	s.nextID = next
	return nil
}

// Create validates and inserts a record, returning its id.
func (s *Store) Create(nr NewRecord) (int, error) {
	rec := core.Record{
		ID:          s.nextID,
		Name:        nr.Name,
		StartDate:   nr.StartDate,
		NextDueDate: nr.NextDueDate,
		Amount:      nr.Amount,
		Description: nr.Description,
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	if rec.NextDueDate.Before(rec.StartDate.Time) {
		return 0, &core.ValidationError{Field: "next due date", Err: core.ErrNextBeforeStart}
	}
	s.records[rec.ID] = &rec
	s.order = append(s.order, rec.ID)
	s.nextID++
	return rec.ID, nil
}

// Get returns a copy of the record.
func (s *Store) Get(id int) (core.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return core.Record{}, notFound(id)
	}
	return *rec, nil
}

// UpdateField applies a single field change. Nothing is modified when the
// new value is rejected.
func (s *Store) UpdateField(id int, u Update) error {
	rec, ok := s.records[id]
	if !ok {
		return notFound(id)
	}
	updated, err := u.apply(*rec)
	if err != nil {
		return err
	}
	*rec = updated
	return nil
}

func (s *Store) Delete(id int) error {
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MarkPaid records a payment by moving the next due date one month ahead.
// The record is left as is when the new date would fall after MaxYear.
func (s *Store) MarkPaid(id int) (core.Date, error) {
	rec, ok := s.records[id]
	if !ok {
		return core.Date{}, notFound(id)
	}
	next, err := rec.NextDueDate.NextDue()
	if err != nil {
		return core.Date{}, err
	}
	rec.NextDueDate = next
	return next, nil
}

// ListDueIn returns the records whose next due date falls in month/year.
func (s *Store) ListDueIn(month, year int) []core.Record {
	var out []core.Record
	for _, id := range s.order {
		rec := s.records[id]
		if rec.NextDueDate.InMonth(month, year) {
			out = append(out, *rec)
		}
	}
	return out
}

// DueBy returns the records whose next due date is on or before d.
func (s *Store) DueBy(d core.Date) []core.Record {
	var out []core.Record
	for _, id := range s.order {
		rec := s.records[id]
		if !rec.NextDueDate.After(d.Time) {
			out = append(out, *rec)
		}
	}
	return out
}

// TotalDueIn sums the amounts of ListDueIn.
func (s *Store) TotalDueIn(month, year int) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range s.ListDueIn(month, year) {
		total = total.Add(rec.Amount)
	}
	return total
}

func (s *Store) MonthSummary(month, year int) core.MonthSummary {
	records := s.ListDueIn(month, year)
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Amount)
	}
	return core.MonthSummary{
		Month:   month,
		Year:    year,
		Records: records,
		Total:   total,
	}
}

// All returns every record in insertion order.
func (s *Store) All() []core.Record {
	out := make([]core.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out
}

func (s *Store) Len() int {
	return len(s.order)
}

// NextID is the id the next Create will assign.
func (s *Store) NextID() int {
	return s.nextID
}

func notFound(id int) error {
	return fmt.Errorf("client %d: %w", id, core.ErrNotFound)
}

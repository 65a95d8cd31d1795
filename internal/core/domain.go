package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual form used on screen and in flat files.
const DateLayout = "02/01/2006"

// parseLayout accepts both zero-padded and bare day/month numbers.
const parseLayout = "2/1/2006"

// Years a date may carry. DateLayout cannot render anything wider.
const (
	MinYear = 1
	MaxYear = 9999
)

type (
	Date struct {
		time.Time
	}

	// Record is one client's billing entry.
	Record struct {
		ID          int
		Name        string
		StartDate   Date
		NextDueDate Date
		Amount      decimal.Decimal
		Description string
	}
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("record not found")
	ErrPersistence = errors.New("persistence error")

	ErrEmptyName       = errors.New("name cannot be empty")
	ErrInvalidAmount   = errors.New("amount must be a number")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrInvalidDate     = errors.New("date must be DD/MM/YYYY")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrDateOutOfRange  = fmt.Errorf("year must be between %d and %d", MinYear, MaxYear)
	ErrNextBeforeStart = errors.New("next due date cannot be before start date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidField    = errors.New("unknown field")
)

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError wraps a storage failure during load or save.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s records: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate reads a DD/MM/YYYY date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	d := Date{Time: t}
	if err := d.Validate(); err != nil {
		return Date{}, &ValidationError{Field: "date", Err: err}
	}
	return d, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	if d.Year() < MinYear || d.Year() > MaxYear {
		return ErrDateOutOfRange
	}
	return nil
}

// InMonth reports whether d falls in the given month of year.
func (d Date) InMonth(month, year int) bool {
	return d.Month() == month && d.Year() == year
}

// AddMonth returns the same day one calendar month later. When the target
// month is too short for that day the result is the 28th, not the last day.
func (d Date) AddMonth() Date {
	month, year := NextMonth(d.Month(), d.Year())
	day := d.Day()
	if day > daysIn(month, year) {
		day = 28
	}
	return NewDate(year, month, day)
}

// NextDue is AddMonth for a stored next due date: it fails instead of
// producing a year past MaxYear.
func (d Date) NextDue() (Date, error) {
	next := d.AddMonth()
	if err := next.Validate(); err != nil {
		return Date{}, &ValidationError{Field: "next due date", Err: err}
	}
	return next, nil
}

// AdvanceMonth is AddMonth as a plain function.
func AdvanceMonth(d Date) Date {
	return d.AddMonth()
}

// NextMonth returns the (month, year) pair following the given one.
func NextMonth(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Validate checks the fields a record cannot live without.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return &ValidationError{Field: "start date", Err: err}
	}
	if err := r.NextDueDate.Validate(); err != nil {
		return &ValidationError{Field: "next due date", Err: err}
	}
	return nil
}

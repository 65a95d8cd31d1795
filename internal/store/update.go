package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"duebook/internal/core"
)

// Field names an editable record attribute.
type Field int

const (
	FieldName Field = iota + 1
	FieldAmount
	FieldDescription
	FieldStartDate
	FieldNextDueDate
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldAmount:
		return "amount"
	case FieldDescription:
		return "description"
	case FieldStartDate:
		return "start date"
	case FieldNextDueDate:
		return "next due date"
	default:
		return "unknown"
	}
}

// Update describes a change to one field. Build it with the Set* helpers.
type Update struct {
	Field       Field
	Text        string
	Amount      decimal.Decimal
	Date        core.Date
	Cascade     bool      // start date only: next due date becomes Date + 1 month
	NextDueDate core.Date // start date only: explicit next due date, zero keeps current
}

func SetName(name string) Update {
	return Update{Field: FieldName, Text: name}
}

func SetAmount(amount decimal.Decimal) Update {
	return Update{Field: FieldAmount, Amount: amount}
}

func SetDescription(desc string) Update {
	return Update{Field: FieldDescription, Text: desc}
}

// SetStartDate changes the first payment date. With cascade the next due
// date is recomputed from it.
func SetStartDate(start core.Date, cascade bool) Update {
	return Update{Field: FieldStartDate, Date: start, Cascade: cascade}
}

// SetStartAndNextDue changes the first payment date and sets the next due
// date explicitly.
func SetStartAndNextDue(start, next core.Date) Update {
	return Update{Field: FieldStartDate, Date: start, NextDueDate: next}
}

func SetNextDueDate(next core.Date) Update {
	return Update{Field: FieldNextDueDate, Date: next}
}

func (u Update) apply(rec core.Record) (core.Record, error) {
	switch u.Field {
	case FieldName:
		if strings.TrimSpace(u.Text) == "" {
			return rec, &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
		}
		rec.Name = u.Text
	case FieldAmount:
		if err := core.ValidateAmount(u.Amount); err != nil {
			return rec, err
		}
		rec.Amount = u.Amount
	case FieldDescription:
		rec.Description = u.Text
	case FieldStartDate:
		if err := u.Date.Validate(); err != nil {
			return rec, &core.ValidationError{Field: "start date", Err: err}
		}
		rec.StartDate = u.Date
		switch {
		case u.Cascade:
			next, err := u.Date.NextDue()
			if err != nil {
				return rec, err
			}
			rec.NextDueDate = next
		case !u.NextDueDate.IsZero():
			rec.NextDueDate = u.NextDueDate
		}
	case FieldNextDueDate:
		if err := u.Date.Validate(); err != nil {
			return rec, &core.ValidationError{Field: "next due date", Err: err}
		}
		rec.NextDueDate = u.Date
	default:
		return rec, &core.ValidationError{Field: "field", Err: core.ErrInvalidField}
	}
	return rec, nil
}

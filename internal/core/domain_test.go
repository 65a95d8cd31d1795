package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddMonth(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want Date
	}{
		{"day kept", NewDate(2025, 3, 15), NewDate(2025, 4, 15)},
		{"31 Jan clamps to 28 Feb", NewDate(2025, 1, 31), NewDate(2025, 2, 28)},
		{"31 Jan leap year still 28 Feb", NewDate(2024, 1, 31), NewDate(2024, 2, 28)},
		{"29 Jan leap year keeps 29", NewDate(2024, 1, 29), NewDate(2024, 2, 29)},
		{"29 Jan non-leap clamps", NewDate(2025, 1, 29), NewDate(2025, 2, 28)},
		{"30 Nov to 30 Dec", NewDate(2025, 11, 30), NewDate(2025, 12, 30)},
		{"31 Mar into 30-day April", NewDate(2025, 3, 31), NewDate(2025, 4, 28)},
		{"December wraps year", NewDate(2025, 12, 15), NewDate(2026, 1, 15)},
		{"31 Dec wraps year", NewDate(2025, 12, 31), NewDate(2026, 1, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.AddMonth()
			assert.True(t, got.Equal(tt.want.Time), "AddMonth(%s) = %s, want %s", tt.in, got, tt.want)
			assert.True(t, AdvanceMonth(tt.in).Equal(tt.want.Time))
		})
	}
}

func TestDateAddMonthTwelveTimes(t *testing.T) {
	d := NewDate(2025, 3, 15)
	for i := 0; i < 12; i++ {
		d = d.AddMonth()
	}
	assert.Equal(t, NewDate(2026, 3, 15), d)

	// The clamp is sticky: once on the 28th, later months keep the 28th.
	d = NewDate(2025, 1, 31)
	for i := 0; i < 12; i++ {
		d = d.AddMonth()
	}
	assert.Equal(t, NewDate(2026, 1, 28), d)
}

func TestNextMonth(t *testing.T) {
	m, y := NextMonth(12, 2025)
	assert.Equal(t, 1, m)
	assert.Equal(t, 2026, y)

	m, y = NextMonth(6, 2025)
	assert.Equal(t, 7, m)
	assert.Equal(t, 2025, y)
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"05/03/2025", NewDate(2025, 3, 5), true},
		{"5/3/2025", NewDate(2025, 3, 5), true},
		{" 31/12/2024 ", NewDate(2024, 12, 31), true},
		{"29/02/2024", NewDate(2024, 2, 29), true},
		{"29/02/2025", Date{}, false},
		{"31/04/2025", Date{}, false},
		{"2025-03-05", Date{}, false},
		{"05/03/25", Date{}, false},
		{"", Date{}, false},
		{"31/12/9999", NewDate(9999, 12, 31), true},
		{"01/01/10000", Date{}, false},
		{"01/01/0000", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			require.NoError(t, err, "%q", tc.in)
			assert.Equal(t, tc.want, got, "%q", tc.in)
			continue
		}
		assert.ErrorIs(t, err, ErrValidation, "%q", tc.in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "%q", tc.in)
		assert.Equal(t, "date", ve.Field)
	}
	_, err := ParseDate("31/04/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("01/01/0000")
	assert.ErrorIs(t, err, ErrDateOutOfRange)
}

func TestDateValidate(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want error
	}{
		{"ordinary", NewDate(2025, 3, 5), nil},
		{"last representable day", NewDate(MaxYear, 12, 31), nil},
		{"zero", Date{}, ErrZeroDate},
		{"past max year", NewDate(MaxYear+1, 1, 15), ErrDateOutOfRange},
		{"year zero", NewDate(0, 6, 1), ErrDateOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDateNextDue(t *testing.T) {
	got, err := NewDate(2025, 1, 31).NextDue()
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, 2, 28), got)

	got, err = NewDate(MaxYear, 11, 30).NextDue()
	require.NoError(t, err)
	assert.Equal(t, NewDate(MaxYear, 12, 30), got)

	_, err = NewDate(MaxYear, 12, 15).NextDue()
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrDateOutOfRange)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "next due date", ve.Field)
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "05/03/2025", NewDate(2025, 3, 5).String())
	assert.Equal(t, "28/02/2025", NewDate(2025, 1, 31).AddMonth().String())
}

func TestDateOf(t *testing.T) {
	got := DateOf(time.Date(2025, 7, 9, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, NewDate(2025, 7, 9), got)
	assert.True(t, got.InMonth(7, 2025))
	assert.False(t, got.InMonth(7, 2024))
}

func TestRecordValidate(t *testing.T) {
	good := Record{
		ID:          1,
		Name:        "Acme",
		StartDate:   NewDate(2025, 1, 1),
		NextDueDate: NewDate(2025, 2, 1),
		Amount:      decimal.RequireFromString("100"),
	}
	require.NoError(t, good.Validate())

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	require.NoError(t, zeroAmount.Validate())

	bads := []Record{
		{Name: "  ", StartDate: good.StartDate, NextDueDate: good.NextDueDate, Amount: good.Amount},
		{Name: "a", StartDate: good.StartDate, NextDueDate: good.NextDueDate, Amount: decimal.NewFromInt(-1)},
		{Name: "a", StartDate: Date{}, NextDueDate: good.NextDueDate, Amount: good.Amount},
		{Name: "a", StartDate: good.StartDate, NextDueDate: Date{}, Amount: good.Amount},
	}
	for i, r := range bads {
		err := r.Validate()
		assert.ErrorIs(t, err, ErrValidation, "case %d", i)
	}
}

func TestErrorKinds(t *testing.T) {
	verr := &ValidationError{Field: "name", Err: ErrEmptyName}
	assert.ErrorIs(t, verr, ErrValidation)
	assert.ErrorIs(t, verr, ErrEmptyName)
	assert.EqualError(t, verr, "invalid name: name cannot be empty")

	cause := errors.New("disk full")
	perr := &PersistenceError{Op: "save", Err: cause}
	assert.ErrorIs(t, perr, ErrPersistence)
	assert.ErrorIs(t, perr, cause)
	assert.NotErrorIs(t, perr, ErrValidation)
}

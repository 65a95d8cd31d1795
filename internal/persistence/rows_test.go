package persistence

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duebook/internal/core"
)

func TestEncodeDecodeRow(t *testing.T) {
	rec := core.Record{
		ID:          12,
		Name:        "Gym, Inc.",
		StartDate:   core.NewDate(2025, 1, 5),
		NextDueDate: core.NewDate(2025, 2, 5),
		Amount:      decimal.RequireFromString("45.90"),
		Description: "monthly plan",
	}

	row := EncodeRow(rec)
	assert.Equal(t, []string{"12", "Gym, Inc.", "05/01/2025", "05/02/2025", "45.9", "monthly plan"}, row)

	h, err := ParseHeader(Columns)
	require.NoError(t, err)
	got, err := h.DecodeRow(row)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.StartDate, got.StartDate)
	assert.Equal(t, rec.NextDueDate, got.NextDueDate)
	assert.True(t, rec.Amount.Equal(got.Amount))
	assert.Equal(t, rec.Description, got.Description)
}

func TestParseHeaderAnyOrder(t *testing.T) {
	h, err := ParseHeader([]string{"Description", "amount", "next_due_date", "start_date", "name", "id"})
	require.NoError(t, err)

	got, err := h.DecodeRow([]string{"", "10", "01/03/2025", "01/02/2025", "x", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)
	assert.Equal(t, "x", got.Name)
	assert.Equal(t, core.NewDate(2025, 3, 1), got.NextDueDate)
}

func TestParseHeaderMissingColumn(t *testing.T) {
	_, err := ParseHeader([]string{"id", "name", "start_date", "amount", "description"})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestDecodeRowShortRow(t *testing.T) {
	h, _ := ParseHeader(Columns)
	got, err := h.DecodeRow([]string{"1", "a", "01/01/2025", "01/02/2025", "5"})
	require.NoError(t, err)
	assert.Equal(t, "", got.Description)
}

func TestDecodeRowErrors(t *testing.T) {
	h, _ := ParseHeader(Columns)
	bads := [][]string{
		{"x", "a", "01/01/2025", "01/02/2025", "5", ""},
		{"0", "a", "01/01/2025", "01/02/2025", "5", ""},
		{"1", "a", "2025-01-01", "01/02/2025", "5", ""},
		{"1", "a", "01/01/2025", "31/02/2025", "5", ""},
		{"1", "a", "01/01/2025", "01/02/2025", "five", ""},
	}
	for i, row := range bads {
		_, err := h.DecodeRow(row)
		assert.Error(t, err, "case %d", i)
	}
}

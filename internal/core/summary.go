package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Years accepted when a month is typed by hand.
const (
	MinReportYear = 2000
	MaxReportYear = 9999
)

// MonthSummary lists the records due in a specific month and their total.
type MonthSummary struct {
	Month   int // 1-12
	Year    int
	Records []Record
	Total   decimal.Decimal
}

func (s MonthSummary) Count() int {
	return len(s.Records)
}

func (s MonthSummary) IsEmpty() bool {
	return len(s.Records) == 0
}

// Label renders the period as MM/YYYY.
func (s MonthSummary) Label() string {
	return FormatMonth(s.Month, s.Year)
}

func FormatMonth(month, year int) string {
	return fmt.Sprintf("%02d/%d", month, year)
}

// ParseMonth reads an MM/YYYY period.
func ParseMonth(s string) (month, year int, err error) {
	invalid := &ValidationError{Field: "month", Err: ErrInvalidMonth}

	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return 0, 0, invalid
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, invalid
	}
	year, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, invalid
	}
	if month < 1 || month > 12 || year < MinReportYear || year > MaxReportYear {
		return 0, 0, invalid
	}
	return month, year, nil
}

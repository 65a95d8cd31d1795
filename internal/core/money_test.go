package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"1500.75", "1500.75", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			want := decimal.RequireFromString(tc.out)
			if err != nil || !got.Equal(want) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, want, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("12.5")); got != "$12.50" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatAmount(decimal.Zero); got != "$0.00" {
		t.Fatalf("unexpected format: %s", got)
	}
}

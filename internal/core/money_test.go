package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"1", 100},
		{"12.5", 1250},
		{"12.50", 1250},
		{"7,25", 725},
		{" 2,50 ", 250},
		{"1.234,56", 123456},
		{"1,234.56", 123456},
		{"0.005", 1}, // half away from zero
		{"19,75 kr", 1975},
		{"-3", -300}, // negatives are kept
		{"", 0},
		{"abc", 0},
		{"1.2.3", 0},
		{"NaN", 0},
		{"1e40", 0},
		{"1000000000", 100000000000},
		{"1000000000,01", 0}, // above one billion kroner
		{"1e15", 0},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		if got.Cents != tc.out {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got.Cents, tc.out)
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	largest := ParseAmount("1000000000")
	var total Money
	for i := 0; i < 100_000_000; i += 1_000_000 {
		total = total.Add(Money{Cents: largest.Cents * 1_000_000})
	}
	if total.Cents != math.MaxInt64 {
		t.Fatalf("total = %d, want saturation at %d", total.Cents, int64(math.MaxInt64))
	}

	neg := Money{Cents: -math.MaxInt64}.Add(Money{Cents: -1})
	if neg.Cents != -math.MaxInt64 {
		t.Fatalf("negative sum = %d", neg.Cents)
	}
	if got := FormatAmount(neg); got[0] != '-' {
		t.Fatalf("FormatAmount(%d) = %q", neg.Cents, got)
	}

	if got := (Money{Cents: 1250}).Add(Money{Cents: -250}); got.Cents != 1000 {
		t.Fatalf("12,50 + -2,50 = %d", got.Cents)
	}
}

func TestMoneyJSONRejectsOutOfRange(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`1e20`), &m); err == nil {
		t.Fatalf("decoded out-of-range amount as %d", m.Cents)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{0, "0,00"},
		{5, "0,05"},
		{1250, "12,50"},
		{1975, "19,75"},
		{123456, "1234,56"},
		{-725, "-7,25"},
	}
	for _, tc := range cases {
		if got := FormatAmount(Money{Cents: tc.cents}); got != tc.out {
			t.Fatalf("FormatAmount(%d) = %q, want %q", tc.cents, got, tc.out)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1975})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "19.75" {
		t.Fatalf("marshal = %s, want 19.75", b)
	}

	for _, in := range []string{`19.75`, `"19.75"`, `19.749`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != 1975 {
			t.Fatalf("unmarshal %s = %d, want 1975", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}

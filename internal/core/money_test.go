package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1200", 120000, true},
		{"1.000.000", 100000000, true},
		{"12,34", 1234, true},
		{"12,346", 1235, true}, // half-up rounding
		{"12,3", 1230, true},
		{" 2,50 ", 250, true},
		{",5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0,00", 0, false},
		{"abc", 0, false},
		{"1,2,3", 0, false},
		{"12.34,5x", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 120050})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "120050" {
		t.Fatalf("expected bare integer, got %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("-300"), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != -300 {
		t.Fatalf("expected -300, got %d", m.Cents)
	}

	if err := json.Unmarshal([]byte(`"12"`), &m); err == nil {
		t.Fatalf("expected error for quoted amount")
	}
}

func TestFromUnits(t *testing.T) {
	if got := FromUnits(1500); got.Cents != 150000 {
		t.Fatalf("expected 150000, got %d", got.Cents)
	}
	if got := (Money{Cents: 12345}).Units(); got != 123.45 {
		t.Fatalf("expected 123.45, got %v", got)
	}
}

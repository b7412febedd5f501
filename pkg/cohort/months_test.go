package cohort

import (
	"testing"
	"time"
)

func TestParseMonth_Valid(t *testing.T) {
	got, err := parseMonth("032025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseMonth_InvalidLength(t *testing.T) {
	_, err := parseMonth("32025") // 5 chars
	if err == nil {
		t.Fatal("expected error for invalid length, got nil")
	}
}

func TestParseMonth_InvalidMonth(t *testing.T) {
	_, err := parseMonth("132025") // 13th month
	if err == nil {
		t.Fatal("expected error for invalid month, got nil")
	}
}

func TestParseMonth_NotDigits(t *testing.T) {
	_, err := parseMonth("0a2025")
	if err == nil {
		t.Fatal("expected error for non numeric month, got nil")
	}
}

func TestMonthOffset(t *testing.T) {
	a := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := monthOffset(a, b); got != 3 {
		t.Fatalf("got %d months, want 3", got)
	}
	if got := monthOffset(a, a); got != 0 {
		t.Fatalf("got %d months, want 0", got)
	}
}

func TestFormatMonth(t *testing.T) {
	d := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	if fm := formatMonth(d); fm != "11/2025" {
		t.Fatalf("got %q, want %q", fm, "11/2025")
	}
}

func TestParseMonth_Signed(t *testing.T) {
	for _, in := range []string{"+12024", "-12024", "01+024", " 12024"} {
		if _, err := parseMonth(in); err == nil {
			t.Fatalf("parseMonth(%q): expected error, got nil", in)
		}
	}
}

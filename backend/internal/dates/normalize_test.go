package dates_test

import (
	"testing"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/dates"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
)

// The reference instant is fixed so every case is deterministic.
var ref = time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)

func TestNormalize_SkipSynonyms(t *testing.T) {
	inputs := []string{"", "skip", "SKIP", "/skip", "none", "No", "  skip  "}

	for _, input := range inputs {
		if got := dates.Normalize(input, ref); got != models.NoDeadline {
			t.Errorf("Normalize(%q) = %q, expected sentinel %q", input, got, models.NoDeadline)
		}
	}
}

func TestNormalize_RelativePhrases(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"today", "2025-12-28"},
		{"tomorrow", "2025-12-29"},
		{"Tomorrow", "2025-12-29"},
		{"in 3 days", "2025-12-31"},
	}

	for _, test := range tests {
		if got := dates.Normalize(test.input, ref); got != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestNormalize_ExplicitDates(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2025-12-30", "2025-12-30"},
		{"2026-01-05", "2026-01-05"},
		{"30/12/2025", "2025-12-30"},
		{"Jan 5 2026", "2026-01-05"},
		{"5 January 2026", "2026-01-05"},
	}

	for _, test := range tests {
		if got := dates.Normalize(test.input, ref); got != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestNormalize_YearlessDateRollsForward(t *testing.T) {
	// Dec 20 has passed relative to the reference, so it resolves to the
	// next occurrence rather than a past date.
	tests := []struct {
		input    string
		expected string
	}{
		{"Dec 20", "2026-12-20"},
		{"20 Dec", "2026-12-20"},
		{"December 20", "2026-12-20"},
		{"20/12", "2026-12-20"},
		{"Dec 30", "2025-12-30"},
		{"Jan 2", "2026-01-02"},
		{"28/12", "2025-12-28"},
	}

	for _, test := range tests {
		if got := dates.Normalize(test.input, ref); got != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestNormalize_UnparseableReturnsSentinel(t *testing.T) {
	inputs := []string{"not a date", "soonish", "???", "13/13"}

	for _, input := range inputs {
		if got := dates.Normalize(input, ref); got != models.NoDeadline {
			t.Errorf("Normalize(%q) = %q, expected sentinel %q", input, got, models.NoDeadline)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	first := dates.Normalize("next Friday", ref)
	second := dates.Normalize("next Friday", ref)

	if first != second {
		t.Errorf("Expected identical results for fixed reference, got %q and %q", first, second)
	}
	if first == models.NoDeadline {
		t.Errorf("Expected %q to parse, got sentinel", "next Friday")
	}
}

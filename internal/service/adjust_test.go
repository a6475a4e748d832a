package service

import (
	"testing"
	"time"

	"github.com/nawafsh/hilalbot/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdjustNoneIsIdentity(t *testing.T) {
	weekend := DefaultWeekend()
	for d := 0; d < 7; d++ {
		raw := date(2025, time.June, 1).AddDate(0, 0, d)
		if got := Adjust(raw, domain.AdjustNone, weekend); !got.Equal(raw) {
			t.Errorf("Adjust(%v, none) = %v, want unchanged", raw, got)
		}
	}
}

func TestAdjustSmart(t *testing.T) {
	weekend := DefaultWeekend()

	tests := []struct {
		name string
		raw  time.Time
		want time.Time
	}{
		// 2025-06-05 is a Thursday: working day, unchanged.
		{"working day", date(2025, time.June, 5), date(2025, time.June, 5)},
		// Friday shifts past the whole weekend to Sunday.
		{"friday", date(2025, time.June, 6), date(2025, time.June, 8)},
		{"saturday", date(2025, time.June, 7), date(2025, time.June, 8)},
		{"sunday unchanged", date(2025, time.June, 8), date(2025, time.June, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjust(tt.raw, domain.AdjustSmart, weekend); !got.Equal(tt.want) {
				t.Errorf("Adjust(%v, smart) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAdjustSmartNeverReturnsWeekend(t *testing.T) {
	weekend := DefaultWeekend()
	start := date(2025, time.January, 1)
	for d := 0; d < 60; d++ {
		got := Adjust(start.AddDate(0, 0, d), domain.AdjustSmart, weekend)
		if weekend[got.Weekday()] {
			t.Fatalf("Adjust returned weekend day %v", got)
		}
	}
}

func TestAdjustFullWeekIsIdentity(t *testing.T) {
	// Degenerate weekend covering every day must not loop; the rule
	// becomes a no-op.
	all := Weekend{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		all[d] = true
	}
	raw := date(2025, time.June, 6)
	if got := Adjust(raw, domain.AdjustSmart, all); !got.Equal(raw) {
		t.Errorf("Adjust with full-week weekend = %v, want %v", got, raw)
	}
}

func TestParseWeekend(t *testing.T) {
	w, ok := ParseWeekend("Friday, Saturday")
	if !ok {
		t.Fatal("ParseWeekend failed")
	}
	if !w[time.Friday] || !w[time.Saturday] || len(w) != 2 {
		t.Errorf("ParseWeekend = %v, want friday+saturday", w)
	}
	if _, ok := ParseWeekend("friday,noday"); ok {
		t.Error("ParseWeekend accepted an invalid day name")
	}
}

package hijri

import (
	"testing"
	"time"
)

func TestToGregorianKnownDates(t *testing.T) {
	tests := []struct {
		name          string
		hy, hm, hd    int
		wantY         int
		wantM         time.Month
		wantD         int
	}{
		{"new year 1445", 1445, 1, 1, 2023, time.July, 19},
		{"new year 1446", 1446, 1, 1, 2024, time.July, 8},
		{"ramadan 1445", 1445, 9, 1, 2024, time.March, 11},
		{"eid al-fitr 1445", 1445, 10, 1, 2024, time.April, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGregorian(tt.hy, tt.hm, tt.hd)
			if err != nil {
				t.Fatalf("ToGregorian(%d,%d,%d): %v", tt.hy, tt.hm, tt.hd, err)
			}
			y, m, d := got.Date()
			if y != tt.wantY || m != tt.wantM || d != tt.wantD {
				t.Errorf("ToGregorian(%d,%d,%d) = %d-%02d-%02d, want %d-%02d-%02d",
					tt.hy, tt.hm, tt.hd, y, m, d, tt.wantY, tt.wantM, tt.wantD)
			}
		})
	}
}

func TestOutOfRange(t *testing.T) {
	if _, err := ToGregorian(MinYear-1, 1, 1); err != ErrOutOfRange {
		t.Errorf("year below range: got %v, want ErrOutOfRange", err)
	}
	if _, err := ToGregorian(MaxYear+1, 1, 1); err != ErrOutOfRange {
		t.Errorf("year above range: got %v, want ErrOutOfRange", err)
	}
	if _, err := ToGregorian(1445, 13, 1); err != ErrOutOfRange {
		t.Errorf("month 13: got %v, want ErrOutOfRange", err)
	}
	if _, err := ToGregorian(1445, 1, 31); err != ErrOutOfRange {
		t.Errorf("day 31: got %v, want ErrOutOfRange", err)
	}
	if _, _, _, err := FromGregorian(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)); err != ErrOutOfRange {
		t.Errorf("gregorian before range: got %v, want ErrOutOfRange", err)
	}
}

// Every valid (year, month, day) must survive the round trip through the
// Gregorian calendar.
func TestRoundTrip(t *testing.T) {
	for year := MinYear; year <= MaxYear; year += 7 {
		for month := 1; month <= 12; month++ {
			for _, day := range []int{1, 15, MonthLength(year, month)} {
				g, err := ToGregorian(year, month, day)
				if err != nil {
					t.Fatalf("ToGregorian(%d,%d,%d): %v", year, month, day, err)
				}
				hy, hm, hd, err := FromGregorian(g)
				if err != nil {
					t.Fatalf("FromGregorian(%v): %v", g, err)
				}
				if hy != year || hm != month || hd != day {
					t.Fatalf("round trip (%d,%d,%d) -> %v -> (%d,%d,%d)",
						year, month, day, g, hy, hm, hd)
				}
			}
		}
	}
}

func TestMonotonicYears(t *testing.T) {
	prev, err := ToGregorian(MinYear, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	for year := MinYear + 1; year <= MaxYear; year++ {
		cur, err := ToGregorian(year, 10, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !cur.After(prev) {
			t.Fatalf("year %d occurrence %v not after year %d occurrence %v",
				year, cur, year-1, prev)
		}
		prev = cur
	}
}

func TestMonthLength(t *testing.T) {
	if got := MonthLength(1445, 1); got != 30 {
		t.Errorf("Muharram length = %d, want 30", got)
	}
	if got := MonthLength(1445, 2); got != 29 {
		t.Errorf("Safar length = %d, want 29", got)
	}
	// 1445 spans 2023-07-19 to 2024-07-07, which is 355 days.
	if !IsLeapYear(1445) {
		t.Fatal("1445 should be a leap year")
	}
	if got := MonthLength(1445, 12); got != 30 {
		t.Errorf("Dhu al-Hijjah length in leap year = %d, want 30", got)
	}
	if IsLeapYear(1446) {
		t.Fatal("1446 should not be a leap year")
	}
	if got := MonthLength(1446, 12); got != 29 {
		t.Errorf("Dhu al-Hijjah length in common year = %d, want 29", got)
	}
}

func TestNextOccurrence(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*3600)

	t.Run("upcoming this hijri year", func(t *testing.T) {
		// Early 1445 (August 2023); Ramadan 1445 is still ahead.
		now := time.Date(2023, time.August, 1, 12, 0, 0, 0, riyadh)
		year, raw, err := NextOccurrence(9, 1, now)
		if err != nil {
			t.Fatal(err)
		}
		if year != 1445 {
			t.Errorf("year = %d, want 1445", year)
		}
		if !raw.After(now) {
			t.Errorf("raw %v not after now %v", raw, now)
		}
		if y, m, d := raw.Date(); y != 2024 || m != time.March || d != 11 {
			t.Errorf("raw = %v, want 2024-03-11", raw)
		}
	})

	t.Run("passed this hijri year advances exactly one", func(t *testing.T) {
		// May 2024: Ramadan 1445 has passed, so the next is 1446.
		now := time.Date(2024, time.May, 1, 12, 0, 0, 0, riyadh)
		year, raw, err := NextOccurrence(9, 1, now)
		if err != nil {
			t.Fatal(err)
		}
		if year != 1446 {
			t.Errorf("year = %d, want 1446", year)
		}
		if !raw.After(now) {
			t.Errorf("raw %v not after now %v", raw, now)
		}
	})

	t.Run("occurrence today counts as passed", func(t *testing.T) {
		// Midday on Eid al-Fitr 1445 itself.
		now := time.Date(2024, time.April, 10, 12, 0, 0, 0, riyadh)
		year, raw, err := NextOccurrence(10, 1, now)
		if err != nil {
			t.Fatal(err)
		}
		if year != 1446 {
			t.Errorf("year = %d, want 1446", year)
		}
		if !raw.After(now) {
			t.Errorf("raw %v not after now %v", raw, now)
		}
	})

	t.Run("result is never at or before the reference", func(t *testing.T) {
		now := time.Date(2025, time.January, 15, 9, 30, 0, 0, riyadh)
		for month := 1; month <= 12; month++ {
			_, raw, err := NextOccurrence(month, 10, now)
			if err != nil {
				t.Fatal(err)
			}
			if !raw.After(now) {
				t.Errorf("month %d: raw %v not after now %v", month, raw, now)
			}
		}
	})
}

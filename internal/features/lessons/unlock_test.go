package lessons

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{"one of each unit", 3661, "01h 01m 01s"},
		{"zero", 0, "00h 00m 00s"},
		{"seconds only", 59, "00h 00m 59s"},
		{"exact minute", 60, "00h 01m 00s"},
		{"exact hour", 3600, "01h 00m 00s"},
		{"double digits", 45296, "12h 34m 56s"},
		{"negative clamps to zero", -5, "00h 00m 00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRemaining(tt.seconds); got != tt.want {
				t.Errorf("FormatRemaining(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestRemainingSeconds(t *testing.T) {
	// A Monday morning.
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startTime string
		want      int64
	}{
		{"later today", "09:30:00", 5400},
		{"starts this second", "08:00:00", 0},
		{"already started clamps to zero", "07:00:00", 0},
		{"without seconds component", "09:30", 5400},
		{"five seconds out", "08:00:05", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemainingSeconds(tt.startTime, now)
			if err != nil {
				t.Fatalf("RemainingSeconds(%q) error: %v", tt.startTime, err)
			}
			if got != tt.want {
				t.Errorf("RemainingSeconds(%q) = %d, want %d", tt.startTime, got, tt.want)
			}
		})
	}
}

func TestRemainingSeconds_DecreasesAsTimeAdvances(t *testing.T) {
	start := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	prev := int64(1<<62 - 1)
	for i := 0; i < 10; i++ {
		now := start.Add(time.Duration(i) * 13 * time.Second)
		got, err := RemainingSeconds("08:05:00", now)
		if err != nil {
			t.Fatalf("RemainingSeconds error: %v", err)
		}
		if got > prev {
			t.Fatalf("remaining increased from %d to %d at tick %d", prev, got, i)
		}
		if got < 0 {
			t.Fatalf("remaining went negative: %d", got)
		}
		prev = got
	}
}

func TestRemainingSeconds_InvalidTime(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	for _, bad := range []string{"", "abc", "25:00:00", "10:75:00", "10:00:99"} {
		if _, err := RemainingSeconds(bad, now); err == nil {
			t.Errorf("RemainingSeconds(%q) expected error", bad)
		}
	}
}

func TestCurrentWeekDay(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC), "Lundi"},
		{time.Date(2024, 9, 4, 10, 0, 0, 0, time.UTC), "Mercredi"},
		{time.Date(2024, 9, 8, 10, 0, 0, 0, time.UTC), "Dimanche"},
	}
	for _, tt := range tests {
		if got := CurrentWeekDay(tt.date); got != tt.want {
			t.Errorf("CurrentWeekDay(%s) = %q, want %q", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	// Monday 08:00.
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		weekDay   string
		startTime string
		want      time.Time
	}{
		{"later same day", "Lundi", "10:00:00", time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)},
		{"earlier today rolls a week", "Lundi", "07:00:00", time.Date(2024, 9, 9, 7, 0, 0, 0, time.UTC)},
		{"exactly now rolls a week", "Lundi", "08:00:00", time.Date(2024, 9, 9, 8, 0, 0, 0, time.UTC)},
		{"later this week", "Jeudi", "14:30:00", time.Date(2024, 9, 5, 14, 30, 0, 0, time.UTC)},
		{"past weekday wraps", "Dimanche", "09:00:00", time.Date(2024, 9, 8, 9, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.weekDay, tt.startTime, now)
			if err != nil {
				t.Fatalf("NextOccurrence error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s %s) = %s, want %s", tt.weekDay, tt.startTime, got, tt.want)
			}
		})
	}

	if _, err := NextOccurrence("Caturday", "10:00:00", now); err == nil {
		t.Error("expected error for unknown week day")
	}
}

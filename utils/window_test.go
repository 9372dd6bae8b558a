package utils

import (
	"testing"
	"time"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2025, 6, 1, t.Hour(), t.Minute(), 0, 0, time.Local)
}

func TestWithinWindow(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		now        string
		want       bool
	}{
		{"normal window inside", "06:00", "22:00", "12:00", true},
		{"normal window before", "06:00", "22:00", "05:30", false},
		{"normal window after", "06:00", "22:00", "22:30", false},
		{"boundary start", "06:00", "22:00", "06:00", true},
		{"boundary end", "06:00", "22:00", "22:00", true},
		{"wrap admits late night", "22:00", "02:00", "23:30", true},
		{"wrap admits early morning", "22:00", "02:00", "01:00", true},
		{"wrap rejects midday", "22:00", "02:00", "12:00", false},
		{"empty window uses default", "", "", "12:00", true},
		{"empty window rejects 4am", "", "", "04:00", false},
		{"malformed window fails open", "banana", "22:00", "03:00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinWindow(tc.start, tc.end, at(tc.now)); got != tc.want {
				t.Errorf("WithinWindow(%q, %q, %s) = %v, want %v", tc.start, tc.end, tc.now, got, tc.want)
			}
		})
	}
}

func TestMinutesOfDay(t *testing.T) {
	got, err := MinutesOfDay("13:45")
	if err != nil {
		t.Fatalf("MinutesOfDay: %v", err)
	}
	if got != 13*60+45 {
		t.Errorf("MinutesOfDay(13:45) = %d, want %d", got, 13*60+45)
	}

	if _, err := MinutesOfDay("25:99"); err == nil {
		t.Error("expected error for invalid time of day")
	}
}

func TestParseTime(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)

	got, err := ParseTime("08:30", date)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("ParseTime(08:30) = %v", got)
	}

	got, err = ParseTime("20:15:30", date)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if got.Hour() != 20 || got.Second() != 30 {
		t.Errorf("ParseTime(20:15:30) = %v", got)
	}
}

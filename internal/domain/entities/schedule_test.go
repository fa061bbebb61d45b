package entities

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextResetDate(t *testing.T) {
	tests := []struct {
		name      string
		frequency ResetFrequency
		from      time.Time
		want      time.Time
	}{
		{
			// 2026-01-07 is a Wednesday
			name:      "weekly from midweek",
			frequency: ResetWeekly,
			from:      date(2026, time.January, 7),
			want:      date(2026, time.January, 11),
		},
		{
			// a Sunday reference advances a full week, never the same day
			name:      "weekly from sunday",
			frequency: ResetWeekly,
			from:      date(2026, time.January, 11),
			want:      date(2026, time.January, 18),
		},
		{
			name:      "weekly normalizes time of day",
			frequency: ResetWeekly,
			from:      time.Date(2026, time.January, 11, 17, 45, 12, 0, time.UTC),
			want:      date(2026, time.January, 18),
		},
		{
			name:      "biweekly",
			frequency: ResetBiweekly,
			from:      date(2026, time.March, 3),
			want:      date(2026, time.March, 17),
		},
		{
			name:      "monthly from mid month",
			frequency: ResetMonthly,
			from:      date(2026, time.January, 15),
			want:      date(2026, time.February, 1),
		},
		{
			name:      "monthly from the first",
			frequency: ResetMonthly,
			from:      date(2026, time.February, 1),
			want:      date(2026, time.March, 1),
		},
		{
			name:      "monthly rolls over the year",
			frequency: ResetMonthly,
			from:      date(2025, time.December, 20),
			want:      date(2026, time.January, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextResetDate(tt.frequency, tt.from)
			if err != nil {
				t.Fatalf("NextResetDate returned error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextResetDate(%s, %s) = %s, want %s", tt.frequency, tt.from, got, tt.want)
			}
			if !got.After(Midnight(tt.from)) {
				t.Errorf("boundary %s is not strictly after reference %s", got, tt.from)
			}
		})
	}
}

func TestNextResetDateUnknownFrequency(t *testing.T) {
	_, err := NextResetDate(ResetFrequency("quarterly"), date(2026, time.January, 1))
	if !errors.Is(err, ErrUnknownResetCadence) {
		t.Fatalf("expected ErrUnknownResetCadence, got %v", err)
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			// 2026-01-14 is a Wednesday
			name: "midweek",
			in:   time.Date(2026, time.January, 14, 9, 30, 0, 0, time.UTC),
			want: date(2026, time.January, 11),
		},
		{
			name: "sunday stays put",
			in:   time.Date(2026, time.January, 11, 23, 59, 0, 0, time.UTC),
			want: date(2026, time.January, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

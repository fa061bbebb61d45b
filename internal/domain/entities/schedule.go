package entities

import "time"

// NextResetDate computes the next reset boundary for a cadence, relative to
// the given reference date. The reference is normalized to midnight before
// the boundary is computed.
//
//   - weekly: the next Sunday strictly after the reference date. When the
//     reference is itself a Sunday the boundary advances a full 7 days; the
//     same day is never returned.
//   - biweekly: reference + 14 days.
//   - monthly: the 1st of the calendar month following the reference.
func NextResetDate(frequency ResetFrequency, from time.Time) (time.Time, error) {
	ref := Midnight(from)

	switch frequency {
	case ResetWeekly:
		days := (7 - int(ref.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return ref.AddDate(0, 0, days), nil
	case ResetBiweekly:
		return ref.AddDate(0, 0, 14), nil
	case ResetMonthly:
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, 1, 0), nil
	default:
		return time.Time{}, ErrUnknownResetCadence
	}
}

// Midnight truncates a timestamp to the start of its day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns the most recent Sunday midnight at or before t, the
// window used for weekly task statistics.
func WeekStart(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, -int(t.Weekday()))
}

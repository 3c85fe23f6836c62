package domain

import "time"

// Date classification used by lead filters and follow-up buckets. All
// comparisons truncate to local midnight in now's location, so a timestamp at
// exactly midnight today is "today", never overdue.

// FollowUpBucket classifies a follow-up date relative to now.
type FollowUpBucket string

const (
	BucketPast   FollowUpBucket = "past"
	BucketToday  FollowUpBucket = "today"
	BucketFuture FollowUpBucket = "future"
)

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsToday reports whether date falls on the same calendar day as now.
func IsToday(date, now time.Time) bool {
	return midnight(date, now.Location()).Equal(midnight(now, now.Location()))
}

// IsOverdue reports whether date is strictly before today's midnight. An
// unset date is never overdue.
func IsOverdue(date, now time.Time) bool {
	if date.IsZero() {
		return false
	}
	return midnight(date, now.Location()).Before(midnight(now, now.Location()))
}

// IsThisWeek reports whether date falls inside the Sunday-to-Saturday week
// containing now.
func IsThisWeek(date, now time.Time) bool {
	loc := now.Location()
	today := midnight(now, loc)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)
	d := midnight(date, loc)
	return !d.Before(weekStart) && d.Before(weekEnd)
}

// IsThisMonth reports whether date shares now's calendar month and year.
func IsThisMonth(date, now time.Time) bool {
	d := date.In(now.Location())
	return d.Year() == now.Year() && d.Month() == now.Month()
}

// ClassifyFollowUp buckets a follow-up date into past, today or future.
func ClassifyFollowUp(date, now time.Time) FollowUpBucket {
	switch {
	case IsToday(date, now):
		return BucketToday
	case IsOverdue(date, now):
		return BucketPast
	default:
		return BucketFuture
	}
}

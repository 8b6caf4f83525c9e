package scheduler

import "time"

// NextOccurrence returns the first instant strictly after now at which the
// wall clock in loc reads weekday hour:minute:00. It works on civil dates so a
// DST shift never moves the fire time off the requested local time. A time
// inside a spring-forward gap fires the gap's length later (02:30 becomes
// 03:30), never earlier. An ambiguous fall-back time fires once, at its first
// reading.
func NextOccurrence(weekday time.Weekday, hour, minute int, loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	for i := 0; i <= 7; i++ {
		// noon is never skipped by a DST transition
		if time.Date(y, m, d+i, 12, 0, 0, 0, loc).Weekday() != weekday {
			continue
		}
		cand := skipGap(time.Date(y, m, d+i, hour, minute, 0, 0, loc), y, m, d+i, hour, minute)
		if cand.After(now) {
			return cand
		}
	}
	// i == 7 always lands on the same weekday a week later, so this is only
	// reached for out-of-range hour/minute values.
	return skipGap(time.Date(y, m, d+7, hour, minute, 0, 0, loc), y, m, d+7, hour, minute)
}

// skipGap moves cand forward when time.Date resolved a nonexistent wall time
// to a reading earlier than the one requested.
func skipGap(cand time.Time, y int, m time.Month, d, hour, minute int) time.Time {
	want := time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
	got := time.Date(cand.Year(), cand.Month(), cand.Day(), cand.Hour(), cand.Minute(), 0, 0, time.UTC)
	if diff := want.Sub(got); diff > 0 {
		return cand.Add(diff)
	}
	return cand
}

// weekly is a cron.Schedule firing once a week.
type weekly struct {
	weekday      time.Weekday
	hour, minute int
	loc          *time.Location
}

func (w weekly) Next(now time.Time) time.Time {
	return NextOccurrence(w.weekday, w.hour, w.minute, w.loc, now)
}

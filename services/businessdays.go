package services

import "time"

// AddBusinessDays returns the date n business days after start, skipping
// Saturdays and Sundays. No holiday calendar is consulted.
//
// The loop always advances at least one calendar day and only then tests the
// counter, so the start date itself is never counted and n=0 yields the day
// immediately following start. Callers depend on this exact behavior.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := start
	counted := 0
	for {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			counted++
		}
		if counted >= n {
			return d
		}
	}
}

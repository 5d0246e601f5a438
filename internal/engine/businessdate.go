package engine

import "time"

// businessDayRollover is the local hour at which a new operating day
// starts. A 01:30 seating belongs to the previous night's service.
const businessDayRollover = 5

// BusinessDate buckets a timestamp into the restaurant operating day it
// belongs to, as a midnight time in the timestamp's location.
func BusinessDate(t time.Time) time.Time {
	if t.Hour() < businessDayRollover {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

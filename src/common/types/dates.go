package types

import (
	"time"
	_ "time/tzdata"
)

// London is the zone every feed timestamp and timetable time is expressed in.
var London = mustLoad("Europe/London")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Date truncates t to its calendar date in t's own zone. Calendar dates are
// carried as midnight UTC so they compare with ==.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RunDateKey is the compact yyyymmdd form used in cache keys and reports.
func RunDateKey(date time.Time) string {
	return date.Format("20060102")
}

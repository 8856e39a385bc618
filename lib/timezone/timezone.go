package timezone

import (
	"os"
	"time"
)

var Location *time.Location

func init() {
	name := os.Getenv("PORTAL_TZ")
	if name == "" {
		name = "America/Denver"
	}
	var err error
	Location, err = time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
}

// the portal renders due dates in the school's local timezone, so
// recency cutoffs have to be computed there even when this process
// runs in some other region
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay floors t to midnight of its school-local day.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

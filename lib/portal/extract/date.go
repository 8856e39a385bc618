package extract

import (
	"encoding/json"
	"time"

	"github.com/dp-pcs/noah-hw-mcp/lib/timezone"
)

const dateLayout = "2006-01-02"

// Date is a calendar date in the school's timezone. It marshals as a
// plain "2006-01-02" string with no time-of-day or offset, which is
// the form the portal renders and downstream consumers expect.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	var s string
	err := json.Unmarshal(raw, &s)
	if err != nil {
		return err
	}
	t, err := time.ParseInLocation(dateLayout, s, timezone.Location)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

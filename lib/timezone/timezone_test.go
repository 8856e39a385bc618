package timezone

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNowUsesLocation(t *testing.T) {
	if Now().Location() != Location {
		t.Fatal("Now() is not in the school timezone")
	}
}

func TestStartOfDay(t *testing.T) {
	testCases := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{
			name:     "afternoon",
			in:       time.Date(2024, time.August, 26, 15, 30, 12, 0, Location),
			expected: time.Date(2024, time.August, 26, 0, 0, 0, 0, Location),
		},
		{
			name:     "already midnight",
			in:       time.Date(2024, time.August, 25, 0, 0, 0, 0, Location),
			expected: time.Date(2024, time.August, 25, 0, 0, 0, 0, Location),
		},
		{
			name:     "late evening stays on the same day",
			in:       time.Date(2024, time.August, 25, 23, 59, 59, 0, Location),
			expected: time.Date(2024, time.August, 25, 0, 0, 0, 0, Location),
		},
	}

	for _, test := range testCases {
		diff := cmp.Diff(test.expected, StartOfDay(test.in))
		if diff != "" {
			t.Fatal(test.name, diff)
		}
	}
}

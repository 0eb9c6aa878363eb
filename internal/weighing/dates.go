package weighing

import (
	"fmt"
	"time"
)

// stampLayout is the 14-digit timestamp format used by every range query:
// YYYYMMDDHHMMSS, local time.
const stampLayout = "20060102150405"

func ParseStamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(stampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYYMMDDHHMMSS", s)
	}
	return t, nil
}

func FormatStamp(t time.Time) string {
	return t.Format(stampLayout)
}

// StartOfDay is the default "from" for session listings.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// StartOfMonth is the default "from" for item lookups.
func StartOfMonth(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

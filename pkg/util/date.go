package util

import "time"

// ISOLayout mirrors an ISO-8601 local timestamp with microseconds and no zone,
// the format the browser client already parses.
const ISOLayout = "2006-01-02T15:04:05.000000"

// FormatISO renders t in ISOLayout using t's location.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

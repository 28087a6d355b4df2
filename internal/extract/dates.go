package extract

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// mailDateLayouts are the accepted Date header shapes, tried in order. The
// first two cover RFC-5322 with and without the trailing comment zone; the
// last covers senders that omit the weekday.
var mailDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

// ParseMailDate parses a raw Date header into a calendar date. Only the date
// in the message's stated zone is retained; the time of day and offset are
// consumed and discarded. Returns false for empty or unparseable headers;
// an unparseable date is an expected condition, not an error.
func ParseMailDate(header string) (civil.Date, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return civil.Date{}, false
	}
	for _, layout := range mailDateLayouts {
		if t, err := time.Parse(layout, header); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

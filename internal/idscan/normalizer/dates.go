package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical date layout of a field set
const ISODate = "2006-01-02"

var (
	// 15.03.1985, 15. 03. 1985., 15/3/1985, 15-03-1985
	dayFirstDate = regexp.MustCompile(`^(\d{1,2})\s*[./-]\s*(\d{1,2})\s*[./-]\s*(\d{4})\.?$`)
	// 1985-03-15, 1985.03.15., 1985/3/15, optionally followed by a time part
	yearFirstDate = regexp.MustCompile(`^(\d{4})\s*[./-]\s*(\d{1,2})\s*[./-]\s*(\d{1,2})\.?(?:[T ].*)?$`)
)

// ParseDate parses the date styles accepted on identity documents.
// Day/month/year order is assumed for dates that start with the day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	var y, m, d string
	if g := yearFirstDate.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := dayFirstDate.FindStringSubmatch(s); g != nil {
		d, m, y = g[1], g[2], g[3]
	} else {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02. into March
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// Date returns s as YYYY-MM-DD when it can be parsed without guessing,
// otherwise s unchanged.
func Date(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return t.Format(ISODate)
}

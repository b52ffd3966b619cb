package publisher

import (
	"strconv"
	"time"

	"github.com/simp-lee/oaepub/jpts"
)

// FormatDate renders a possibly partial date as "July 14, 2010",
// "July 2010", "Summer, 2010" or "2010". A zero date renders as "".
func FormatDate(d jpts.Date) string {
	if d.IsZero() {
		return ""
	}
	year := strconv.Itoa(d.Year)
	switch {
	case d.Month >= 1 && d.Month <= 12 && d.Day > 0:
		return time.Month(d.Month).String() + " " + strconv.Itoa(d.Day) + ", " + year
	case d.Month >= 1 && d.Month <= 12:
		return time.Month(d.Month).String() + " " + year
	case d.Season != "":
		return d.Season + ", " + year
	default:
		return year
	}
}

// FormatDayFirst renders a date as "14 July 2010", dropping missing parts.
func FormatDayFirst(d jpts.Date) string {
	if d.IsZero() {
		return ""
	}
	s := strconv.Itoa(d.Year)
	if d.Month >= 1 && d.Month <= 12 {
		s = time.Month(d.Month).String() + " " + s
		if d.Day > 0 {
			s = strconv.Itoa(d.Day) + " " + s
		}
	}
	return s
}

// ISODate renders a date in the W3CDTF form used by Dublin Core: "2010",
// "2010-07" or "2010-07-14".
func ISODate(d jpts.Date) string {
	if d.IsZero() {
		return ""
	}
	s := strconv.Itoa(d.Year)
	if d.Month >= 1 && d.Month <= 12 {
		s += "-" + pad2(d.Month)
		if d.Day > 0 {
			s += "-" + pad2(d.Day)
		}
	}
	return s
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

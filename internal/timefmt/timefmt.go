// Package timefmt normalizes exam timestamps for use as server query values.
package timefmt

import "strings"

// Normalize converts a raw exam timestamp into a timezone-qualified form safe to
// embed in a URL query. The first space (if any) becomes the "T" date/time
// separator, and timestamps without an explicit UTC offset get "+08:00"
// appended. The input is never parsed into a calendar type; timestamps that
// already carry an offset keep their instant unchanged.
func Normalize(raw string) string {
	s := strings.Replace(raw, " ", "T", 1)
	if !strings.Contains(s, "+") {
		s += "+08:00"
	}
	return s
}

// Package slot holds the rules for one-hour availability slots: parsing
// client input into UTC instants and intersecting slot sets.
package slot

import (
	"slices"
	"strings"
	"time"
)

// Layout is the wire format of a slot.
const Layout = time.RFC3339

// Fractional seconds are accepted by time.Parse after any seconds field.
var zonedLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z07",
	"2006-01-02T15Z07",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
}

// Parse reads an ISO-8601 date-time carrying an explicit offset and returns
// it as a UTC instant. The instant must start an hour both as written and in UTC.
func Parse(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	if !hasTwoDigitHour(s) {
		return time.Time{}, &MalformedTimeError{Value: value, Reason: ReasonUnparsable}
	}

	t, ok := parseFirst(s, zonedLayouts)
	if !ok {
		if _, local := parseFirst(s, localLayouts); local {
			return time.Time{}, &MalformedTimeError{Value: value, Reason: ReasonMissingTimezone}
		}
		return time.Time{}, &MalformedTimeError{Value: value, Reason: ReasonUnparsable}
	}

	if t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 || !t.Truncate(time.Hour).Equal(t) {
		return time.Time{}, &MalformedTimeError{Value: value, Reason: ReasonNotOnTheHour}
	}

	return t.UTC(), nil
}

// ParseAll parses every value or none; the first failure is returned.
func ParseAll(values []string) ([]time.Time, error) {
	times := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := Parse(v)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, nil
}

// time.Parse reads the 15 hour field with one or two digits; ISO-8601 needs two.
func hasTwoDigitHour(s string) bool {
	return len(s) >= 13 && s[10] == 'T' && isDigit(s[11]) && isDigit(s[12])
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func parseFirst(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize converts to UTC, sorts ascending and drops repeated instants.
// The result is never nil.
func Normalize(times []time.Time) []time.Time {
	out := make([]time.Time, 0, len(times))
	for _, t := range times {
		out = append(out, t.UTC())
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

// Intersect returns the instants present in every set, ascending.
// With no sets the result is empty.
func Intersect(sets ...[]time.Time) []time.Time {
	if len(sets) == 0 {
		return []time.Time{}
	}

	common := Normalize(sets[0])
	for _, set := range sets[1:] {
		if len(common) == 0 {
			break
		}
		common = intersectSorted(common, Normalize(set))
	}
	return common
}

func intersectSorted(a, b []time.Time) []time.Time {
	out := make([]time.Time, 0, min(len(a), len(b)))
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch a[i].Compare(b[j]) {
		case -1:
			i++
		case 1:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// Format renders times in the wire layout.
func Format(times []time.Time) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.UTC().Format(Layout)
	}
	return out
}

package canonical

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// EncodeRule renders a recurrence-rule mapping as RFC 5545 RRULE text.
// Output is deterministic: keys are sorted case-insensitively and
// upper-cased, so re-parsing the same feed always reproduces the same text
// (the fingerprint depends on it).
func EncodeRule(rule map[string][]string) string {
	keys := make([]string, 0, len(rule))
	for k := range rule {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToUpper(keys[i]) < strings.ToUpper(keys[j])
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		key := strings.ToUpper(k)
		vals := make([]string, 0, len(rule[k]))
		for _, v := range rule[k] {
			switch key {
			case "UNTIL":
				vals = append(vals, formatUntil(v))
			case "COUNT":
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					vals = append(vals, strconv.Itoa(n))
				} else {
					vals = append(vals, strings.ToUpper(strings.TrimSpace(v)))
				}
			default:
				vals = append(vals, strings.ToUpper(strings.TrimSpace(v)))
			}
		}
		parts = append(parts, key+"="+strings.Join(vals, ","))
	}
	return strings.Join(parts, ";")
}

// formatUntil converts an UNTIL value to absolute UTC compact form
// (YYYYMMDDThhmmssZ). A bare date is treated as midnight UTC; a naive
// date-time as UTC wall clock. Unrecognized forms pass through.
func formatUntil(v string) string {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(layoutUTC, v); err == nil {
		return t.UTC().Format(layoutUTC)
	}
	if t, err := time.Parse(layoutDateTime, v); err == nil {
		return t.UTC().Format(layoutUTC)
	}
	if t, err := time.Parse(layoutDate, v); err == nil {
		return t.UTC().Format(layoutUTC)
	}
	return v
}

// EncodeDates renders an EXDATE or RDATE line. All-day events use date-only
// encoding; timed events use local wall-clock text with a TZID parameter.
func EncodeDates(kind string, allDay bool, instants []time.Time, tzid string) string {
	vals := make([]string, 0, len(instants))
	if allDay {
		for _, t := range instants {
			vals = append(vals, t.Format(layoutDate))
		}
		return kind + ";VALUE=DATE:" + strings.Join(vals, ",")
	}
	for _, t := range instants {
		vals = append(vals, t.Format(layoutDateTime))
	}
	return kind + ";TZID=" + tzid + ":" + strings.Join(vals, ",")
}

// ValidateRule re-parses encoded RRULE text. It catches encodings the target
// store would reject before any mutation is attempted.
func ValidateRule(text string) error {
	_, err := rrule.StrToRRule(text)
	return err
}

package feed

import "time"

// DateTime is a raw iCalendar date or date-time value together with the
// parameters that affect its interpretation. The value keeps its wire form
// ("20250110", "20250110T090000" or "20250110T090000Z"); interpretation
// happens later in the canonical package.
type DateTime struct {
	Value string
	// TZID is the raw TZID parameter. Vendor names ("Romance Standard Time")
	// are allowed and resolved downstream.
	TZID string
	// IsDate marks a date-only value. Detection is structural (VALUE=DATE or
	// no time component), never inferred from a midnight time-of-day.
	IsDate bool
}

// DateList is one EXDATE or RDATE property: a shared TZID parameter and one
// or more comma-separated date components.
type DateList struct {
	TZID  string
	Dates []DateTime
}

// Event is a single VEVENT as it appears in the feed document.
type Event struct {
	UID string
	// RecurrenceID is set when this VEVENT overrides one instance of a
	// recurring series.
	RecurrenceID *DateTime

	Summary     string
	Description string
	Location    string

	Start DateTime
	// End and Duration are both optional; when neither is present a default
	// span is derived during canonicalization.
	End      *DateTime
	Duration *time.Duration

	// RRule maps recurrence keys (FREQ, INTERVAL, UNTIL, ...) to their value
	// lists, keys kept in their original casing.
	RRule   map[string][]string
	ExDates []DateList
	RDates  []DateList
}

// IsOverride reports whether the event replaces a single occurrence of a
// recurring series.
func (e *Event) IsOverride() bool {
	return e.RecurrenceID != nil
}

// IsRecurring reports whether the event carries a recurrence rule.
func (e *Event) IsRecurring() bool {
	return len(e.RRule) > 0
}

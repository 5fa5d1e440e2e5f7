package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
)

// Parse parses a feed document into raw events. A malformed document is an
// error; a malformed single VEVENT is logged and skipped so one bad record
// does not take the whole feed down.
func Parse(body []byte) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed document")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to parse feed document: %w", err)
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			log.Warnf("skipping malformed feed event: %v", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	starts := dateTimesFromProp(startProp)
	out.Start = starts[0]

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && p.Value != "" {
		end := dateTimesFromProp(p)[0]
		out.End = &end
	}
	if p := ve.GetProperty("DURATION"); p != nil && p.Value != "" {
		d, err := parseDuration(p.Value)
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		out.Duration = &d
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		out.RRule = parseRuleMapping(p.Value)
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		if list, ok := dateListFromProp(p); ok {
			out.ExDates = append(out.ExDates, list)
		}
	}
	for _, p := range ve.GetProperties("RDATE") {
		if list, ok := dateListFromProp(p); ok {
			out.RDates = append(out.RDates, list)
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil && p.Value != "" {
		rid := dateTimesFromProp(p)[0]
		out.RecurrenceID = &rid
	}

	return out, nil
}

// dateTimesFromProp splits a date property into its comma-separated
// components, all sharing the property's TZID and VALUE parameters.
func dateTimesFromProp(p *ical.IANAProperty) []DateTime {
	tzid := paramValue(p, "TZID")
	isDate := strings.EqualFold(paramValue(p, "VALUE"), "DATE")

	parts := strings.Split(p.Value, ",")
	out := make([]DateTime, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, DateTime{
			Value:  part,
			TZID:   tzid,
			IsDate: isDate || !strings.Contains(part, "T"),
		})
	}
	if len(out) == 0 {
		out = append(out, DateTime{Value: "", TZID: tzid, IsDate: isDate})
	}
	return out
}

func dateListFromProp(p *ical.IANAProperty) (DateList, bool) {
	if p.Value == "" {
		return DateList{}, false
	}
	return DateList{
		TZID:  paramValue(p, "TZID"),
		Dates: dateTimesFromProp(p),
	}, true
}

func paramValue(p *ical.IANAProperty, name string) string {
	if p.ICalParameters == nil {
		return ""
	}
	if vs, ok := p.ICalParameters[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseRuleMapping turns RRULE text ("FREQ=WEEKLY;UNTIL=20251231") into a
// key -> values mapping, keeping the original key casing.
func parseRuleMapping(val string) map[string][]string {
	rule := make(map[string][]string)
	for _, part := range strings.Split(val, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		rule[key] = strings.Split(kv[1], ",")
	}
	return rule
}

// parseDuration parses an RFC 5545 duration ("P1DT2H30M", "PT1H", "-P2W").
func parseDuration(val string) (time.Duration, error) {
	s := strings.TrimSpace(val)
	orig := s
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	components := 0
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", orig)
		}
		num = ""
		components++
		switch r {
		case 'W':
			total += time.Duration(n) * 7 * 24 * time.Hour
		case 'D':
			total += time.Duration(n) * 24 * time.Hour
		case 'H':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", orig)
			}
			total += time.Duration(n) * time.Hour
		case 'M':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", orig)
			}
			total += time.Duration(n) * time.Minute
		case 'S':
			if !inTime {
				return 0, fmt.Errorf("invalid duration %q", orig)
			}
			total += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", orig)
		}
	}
	if num != "" || components == 0 {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	if negative {
		total = -total
	}
	return total, nil
}

package canonical

import (
	"fmt"
	"time"

	"github.com/icalsync/icalsync/pkg/feed"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// Private extended-property keys carried on every synced event. They let the
// reconciler recognize its own prior writes; events without them are never
// touched.
const (
	PropSource      = "src"
	PropIdentity    = "uid"
	PropFingerprint = "fp"
)

// Canonicalizer turns raw feed events into the resource shape the target
// calendar stores, keyed by a stable identity.
type Canonicalizer struct {
	resolver   *Resolver
	normalizer *Normalizer
	sourceTag  string
}

func NewCanonicalizer(resolver *Resolver, sourceTag string) *Canonicalizer {
	return &Canonicalizer{
		resolver:   resolver,
		normalizer: NewNormalizer(resolver),
		sourceTag:  sourceTag,
	}
}

// Canonicalize resolves the event's identity and converts it into a target
// calendar resource. The identity is the feed UID, suffixed with the
// normalized override instant for recurrence overrides so every override of
// the same series stays globally unique. Deterministic: the same raw event
// always yields the same identity, resource and fingerprint.
func (c *Canonicalizer) Canonicalize(ev feed.Event) (string, *gcal.Event, error) {
	// The DTSTART timezone decides the working zone for the whole event.
	zone := c.resolver.Resolve(ev.Start.TZID)
	loc, err := c.resolver.Location(ev.Start.TZID)
	if err != nil {
		return "", nil, fmt.Errorf("event %s: %w", ev.UID, err)
	}

	identity := ev.UID
	if ev.RecurrenceID != nil {
		_, rid, err := c.normalizer.Normalize(*ev.RecurrenceID, loc)
		if err != nil {
			return "", nil, fmt.Errorf("event %s: invalid RECURRENCE-ID: %w", ev.UID, err)
		}
		identity = ev.UID + "::" + rid.Format(time.RFC3339)
	}

	allDay, start, err := c.normalizer.Normalize(ev.Start, loc)
	if err != nil {
		return "", nil, fmt.Errorf("event %s: invalid DTSTART: %w", ev.UID, err)
	}

	var end time.Time
	switch {
	case ev.End != nil:
		_, end, err = c.normalizer.Normalize(*ev.End, loc)
		if err != nil {
			return "", nil, fmt.Errorf("event %s: invalid DTEND: %w", ev.UID, err)
		}
	case ev.Duration != nil:
		end = start.Add(*ev.Duration)
	case allDay:
		end = start.AddDate(0, 0, 1)
	default:
		end = start.Add(time.Hour)
	}

	rruleText := ""
	if ev.IsRecurring() {
		rruleText = EncodeRule(ev.RRule)
		if verr := ValidateRule(rruleText); verr != nil {
			log.Warnf("event %s: encoded RRULE %q failed validation: %v", ev.UID, rruleText, verr)
		}
	}

	exDates, err := c.normalizeDateLists(ev.ExDates, loc)
	if err != nil {
		return "", nil, fmt.Errorf("event %s: invalid EXDATE: %w", ev.UID, err)
	}
	rDates, err := c.normalizeDateLists(ev.RDates, loc)
	if err != nil {
		return "", nil, fmt.Errorf("event %s: invalid RDATE: %w", ev.UID, err)
	}

	resource := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       eventDateTime(allDay, start, zone),
		// End's all-day encoding always mirrors start's, whatever DTEND said.
		End: eventDateTime(allDay, end, zone),
		// Patch merges per field, so fields cleared to empty must still be
		// present in the request body to clear the stored value.
		ForceSendFields: []string{"Summary", "Description", "Location", "Recurrence"},
	}

	// Recurrence lines are assembled only for master events; an override is a
	// single materialized occurrence and must not carry them.
	if !ev.IsOverride() {
		var lines []string
		if rruleText != "" {
			lines = append(lines, "RRULE:"+rruleText)
		}
		if len(exDates) > 0 {
			lines = append(lines, EncodeDates("EXDATE", allDay, exDates, zone))
		}
		if len(rDates) > 0 {
			lines = append(lines, EncodeDates("RDATE", allDay, rDates, zone))
		}
		resource.Recurrence = lines
	}

	fp := Fingerprint(
		resource.Summary, resource.Description, resource.Location,
		resource.Start, resource.End,
		rruleText,
		formatInstants(allDay, exDates),
		formatInstants(allDay, rDates),
	)
	resource.ExtendedProperties = &gcal.EventExtendedProperties{
		Private: map[string]string{
			PropSource:      c.sourceTag,
			PropIdentity:    identity,
			PropFingerprint: fp,
		},
	}

	return identity, resource, nil
}

// StartTime normalizes just the event's start in the default zone. The
// reconciler uses it for retention filtering before full canonicalization.
func (c *Canonicalizer) StartTime(ev feed.Event) (time.Time, error) {
	_, start, err := c.normalizer.Normalize(ev.Start, nil)
	return start, err
}

// normalizeDateLists flattens EXDATE/RDATE property groups into a single
// ordered instant list, each component normalized in the event's zone.
func (c *Canonicalizer) normalizeDateLists(lists []feed.DateList, loc *time.Location) ([]time.Time, error) {
	var out []time.Time
	for _, list := range lists {
		for _, d := range list.Dates {
			if d.TZID == "" {
				d.TZID = list.TZID
			}
			_, t, err := c.normalizer.Normalize(d, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

func eventDateTime(allDay bool, t time.Time, zone string) *gcal.EventDateTime {
	if allDay {
		return &gcal.EventDateTime{Date: t.Format("2006-01-02")}
	}
	return &gcal.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: zone}
}

func formatInstants(allDay bool, instants []time.Time) []string {
	out := make([]string, 0, len(instants))
	for _, t := range instants {
		if allDay {
			out = append(out, t.Format("2006-01-02"))
		} else {
			out = append(out, t.Format(time.RFC3339))
		}
	}
	return out
}

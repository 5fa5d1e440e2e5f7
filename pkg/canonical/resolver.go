package canonical

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// vendorZones maps Microsoft timezone names, as commonly published in
// Outlook ICS exports, to IANA identifiers.
var vendorZones = map[string]string{
	"Romance Standard Time":          "Europe/Paris",
	"W. Europe Standard Time":        "Europe/Berlin",
	"Central European Standard Time": "Europe/Warsaw",
	"FLE Standard Time":              "Europe/Helsinki",
	"GMT Standard Time":              "Europe/London",
	"Eastern Standard Time":          "America/New_York",
	"Pacific Standard Time":          "America/Los_Angeles",
}

// Resolver maps feed-supplied timezone identifiers to canonical IANA zones.
// The alias table is extensible through configuration so feeds with other
// vendor zone names work without code changes.
type Resolver struct {
	defaultZone string
	defaultLoc  *time.Location
	aliases     map[string]string
	strict      bool
}

func NewResolver(defaultZone string, extraAliases map[string]string, strict bool) (*Resolver, error) {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return nil, fmt.Errorf("invalid default timezone %q: %w", defaultZone, err)
	}
	aliases := make(map[string]string, len(vendorZones)+len(extraAliases))
	for k, v := range vendorZones {
		aliases[k] = v
	}
	for k, v := range extraAliases {
		aliases[k] = v
	}
	return &Resolver{
		defaultZone: defaultZone,
		defaultLoc:  loc,
		aliases:     aliases,
		strict:      strict,
	}, nil
}

func (r *Resolver) DefaultZone() string {
	return r.defaultZone
}

func (r *Resolver) DefaultLocation() *time.Location {
	return r.defaultLoc
}

// Resolve maps a raw timezone identifier to a canonical zone name. An empty
// identifier resolves to the default zone; unknown identifiers pass through
// unchanged so they stay visible in the synced output.
func (r *Resolver) Resolve(tzid string) string {
	if tzid == "" {
		return r.defaultZone
	}
	if mapped, ok := r.aliases[tzid]; ok {
		return mapped
	}
	return tzid
}

// Location resolves tzid and loads its zone data. In lenient mode an
// unloadable zone falls back to the default location; strict mode fails.
func (r *Resolver) Location(tzid string) (*time.Location, error) {
	name := r.Resolve(tzid)
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if r.strict {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	log.Warnf("unknown timezone %q, falling back to %s", name, r.defaultZone)
	return r.defaultLoc, nil
}

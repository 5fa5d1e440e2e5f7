package canonical

import (
	"fmt"
	"strings"
	"time"

	"github.com/icalsync/icalsync/pkg/feed"
)

const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
	layoutUTC      = "20060102T150405Z"
)

// Normalizer converts raw feed date/date-time values into zoned instants.
type Normalizer struct {
	resolver *Resolver
}

func NewNormalizer(resolver *Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize returns the all-day flag and the instant expressed in target.
// A nil target means the resolver's default location.
//
//   - date-only values become midnight on that date in target;
//   - naive date-times are anchored in their resolved TZID (or target when
//     the value carries none) before converting;
//   - UTC-suffixed values convert directly.
func (n *Normalizer) Normalize(v feed.DateTime, target *time.Location) (bool, time.Time, error) {
	if target == nil {
		target = n.resolver.DefaultLocation()
	}

	if v.IsDate {
		d, err := time.ParseInLocation(layoutDate, v.Value, target)
		if err != nil {
			return false, time.Time{}, fmt.Errorf("invalid date value %q: %w", v.Value, err)
		}
		return true, d, nil
	}

	if strings.HasSuffix(v.Value, "Z") {
		t, err := time.Parse(layoutUTC, v.Value)
		if err != nil {
			return false, time.Time{}, fmt.Errorf("invalid UTC date-time value %q: %w", v.Value, err)
		}
		return false, t.In(target), nil
	}

	src := target
	if v.TZID != "" {
		loc, err := n.resolver.Location(v.TZID)
		if err != nil {
			return false, time.Time{}, err
		}
		src = loc
	}
	t, err := time.ParseInLocation(layoutDateTime, v.Value, src)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("invalid date-time value %q: %w", v.Value, err)
	}
	return false, t.In(target), nil
}

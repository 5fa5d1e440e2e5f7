package google

import (
	"context"
	"fmt"
	"time"

	"github.com/icalsync/icalsync/internal/utils"
	"github.com/icalsync/icalsync/pkg/canonical"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

const maxResultsPerPage = 2500

// Calendar gives the reconciler access to the synced events of one target
// Google calendar.
type Calendar struct {
	service    *gcal.Service
	calendarId string
	sourceTag  string
	clock      utils.Clock
}

func NewCalendar(service *gcal.Service, calendarId string, sourceTag string, clock utils.Clock) *Calendar {
	return &Calendar{
		service:    service,
		calendarId: calendarId,
		sourceTag:  sourceTag,
		clock:      clock,
	}
}

// ListManaged returns the future events previously created by this sync,
// keyed by the identity stored in their private properties. Events lacking
// the identity annotation are skipped and therefore never touched.
func (c *Calendar) ListManaged(ctx context.Context) (map[string]*gcal.Event, error) {
	items := make(map[string]*gcal.Event)
	pageToken := ""
	for {
		call := c.service.Events.List(c.calendarId).
			TimeMin(c.clock.Now().UTC().Format(time.RFC3339)).
			SingleEvents(false).
			MaxResults(maxResultsPerPage).
			PrivateExtendedProperty(canonical.PropSource + "=" + c.sourceTag).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
			log.Error(err)
			return nil, err
		}
		for _, ev := range resp.Items {
			if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private == nil {
				continue
			}
			uid := ev.ExtendedProperties.Private[canonical.PropIdentity]
			if uid == "" {
				continue
			}
			items[uid] = ev
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	log.Debugf("found %d managed events in calendar %s", len(items), c.calendarId)
	return items, nil
}

func (c *Calendar) Insert(ctx context.Context, event *gcal.Event) (*gcal.Event, error) {
	result, err := c.service.Events.Insert(c.calendarId, event).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}
	return result, nil
}

func (c *Calendar) Patch(ctx context.Context, eventId string, event *gcal.Event) (*gcal.Event, error) {
	result, err := c.service.Events.Patch(c.calendarId, eventId, event).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to patch event in Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}
	return result, nil
}

func (c *Calendar) Delete(ctx context.Context, eventId string) error {
	if err := c.service.Events.Delete(c.calendarId, eventId).Context(ctx).Do(); err != nil {
		err := fmt.Errorf("unable to delete event from Google Calendar: %v", err)
		log.Error(err)
		return err
	}
	return nil
}

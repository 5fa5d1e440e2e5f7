package google

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/icalsync/icalsync/pkg/canonical"
	gcal "google.golang.org/api/calendar/v3"
)

// StubStore is an in-memory store implementation for tests. Events are keyed
// by their store-assigned id, mirroring the remote API.
type StubStore struct {
	data map[string]*gcal.Event

	Inserts int
	Patches int
	Deletes int
	Lists   int

	// Err, when set, is returned by every mutation.
	Err error
}

func NewStubStore() *StubStore {
	return &StubStore{data: map[string]*gcal.Event{}}
}

func (s *StubStore) ListManaged(_ context.Context) (map[string]*gcal.Event, error) {
	s.Lists++
	items := make(map[string]*gcal.Event, len(s.data))
	for _, ev := range s.data {
		if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private == nil {
			continue
		}
		uid := ev.ExtendedProperties.Private[canonical.PropIdentity]
		if uid == "" {
			continue
		}
		items[uid] = ev
	}
	return items, nil
}

func (s *StubStore) Insert(_ context.Context, event *gcal.Event) (*gcal.Event, error) {
	s.Inserts++
	if s.Err != nil {
		return nil, s.Err
	}
	stored := *event
	stored.Id = uuid.NewString()
	s.data[stored.Id] = &stored
	return &stored, nil
}

func (s *StubStore) Patch(_ context.Context, eventId string, event *gcal.Event) (*gcal.Event, error) {
	s.Patches++
	if s.Err != nil {
		return nil, s.Err
	}
	if _, ok := s.data[eventId]; !ok {
		return nil, errors.New("event with given id not found")
	}
	stored := *event
	stored.Id = eventId
	s.data[eventId] = &stored
	return &stored, nil
}

func (s *StubStore) Delete(_ context.Context, eventId string) error {
	s.Deletes++
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.data[eventId]; !ok {
		return errors.New("event with given id not found")
	}
	delete(s.data, eventId)
	return nil
}

// Size reports how many events the stub currently holds.
func (s *StubStore) Size() int {
	return len(s.data)
}

func (s *StubStore) Cleanup() {
	s.data = map[string]*gcal.Event{}
	s.Inserts, s.Patches, s.Deletes, s.Lists = 0, 0, 0, 0
	s.Err = nil
}

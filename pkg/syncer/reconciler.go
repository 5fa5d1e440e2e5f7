package syncer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/icalsync/icalsync/internal/utils"
	"github.com/icalsync/icalsync/pkg/canonical"
	"github.com/icalsync/icalsync/pkg/feed"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// Store is the part of the target calendar API the reconciler needs.
type Store interface {
	ListManaged(ctx context.Context) (map[string]*gcal.Event, error)
	Insert(ctx context.Context, event *gcal.Event) (*gcal.Event, error)
	Patch(ctx context.Context, eventId string, event *gcal.Event) (*gcal.Event, error)
	Delete(ctx context.Context, eventId string) error
}

// Source fetches the raw feed document.
type Source interface {
	Fetch(ctx context.Context, etag string, lastModified string) (feed.Document, error)
}

// Reconciler drives one synchronization run: fetch, short-circuit on an
// unchanged feed, canonicalize, and apply the minimal set of
// insert/patch/delete mutations against the target store.
type Reconciler struct {
	source        Source
	store         Store
	canonicalizer *canonical.Canonicalizer
	statePath     string
	pastDays      int
	clock         utils.Clock
}

func NewReconciler(source Source, store Store, canonicalizer *canonical.Canonicalizer, statePath string, pastDays int, clock utils.Clock) *Reconciler {
	return &Reconciler{
		source:        source,
		store:         store,
		canonicalizer: canonicalizer,
		statePath:     statePath,
		pastDays:      pastDays,
		clock:         clock,
	}
}

// Run executes one full synchronization pass. Runs are idempotent: an
// unchanged feed against an already-synced calendar produces no mutations.
// A mutation failure aborts the run; the next run recomputes the diff from
// the feed and retries whatever did not land.
func (r *Reconciler) Run(ctx context.Context) error {
	runId := uuid.NewString()
	log.Infof("starting sync run %s", runId)

	state := LoadState(r.statePath)

	doc, err := r.source.Fetch(ctx, state.ETag, state.LastModified)
	if err != nil {
		return fmt.Errorf("feed fetch failed: %w", err)
	}
	if doc.NotModified {
		log.Infof("feed not modified (304), nothing to do")
		return nil
	}

	hash := contentHash(doc.Body)
	if state.Hash != "" && hash == state.Hash {
		log.Infof("feed content hash unchanged, nothing to do")
		return nil
	}

	// Persisting before mutating trades a repeated refetch for a repeated
	// sync: a crash from here on leaves the calendar stale until the next
	// feed change, but never reprocesses an unchanged document.
	newState := State{ETag: doc.ETag, LastModified: doc.LastModified, Hash: hash}
	if err := SaveState(r.statePath, newState); err != nil {
		return fmt.Errorf("unable to persist sync state: %w", err)
	}

	events, err := feed.Parse(doc.Body)
	if err != nil {
		return fmt.Errorf("feed parse failed: %w", err)
	}

	snapshot, err := r.buildSnapshot(events)
	if err != nil {
		return err
	}

	existing, err := r.store.ListManaged(ctx)
	if err != nil {
		return err
	}

	inserted, patched, unchanged := 0, 0, 0
	for uid, resource := range snapshot {
		current, ok := existing[uid]
		if !ok {
			if len(resource.Recurrence) > 0 {
				log.Infof("inserting recurrence for %s: %v", uid, resource.Recurrence)
			}
			if _, err := r.store.Insert(ctx, resource); err != nil {
				return mutationError("insert", uid, resource, err)
			}
			inserted++
			continue
		}
		if fingerprintOf(current) == fingerprintOf(resource) {
			unchanged++
			continue
		}
		if len(resource.Recurrence) > 0 {
			log.Infof("patching recurrence for %s: %v", uid, resource.Recurrence)
		}
		if _, err := r.store.Patch(ctx, current.Id, resource); err != nil {
			return mutationError("patch", uid, resource, err)
		}
		patched++
	}

	deleted := 0
	for uid, current := range existing {
		if _, ok := snapshot[uid]; ok {
			continue
		}
		if err := r.store.Delete(ctx, current.Id); err != nil {
			return mutationError("delete", uid, current, err)
		}
		deleted++
	}

	log.Infof("sync run %s completed: %d inserted, %d patched, %d deleted, %d unchanged",
		runId, inserted, patched, deleted, unchanged)
	return nil
}

// buildSnapshot canonicalizes the feed events that survive the retention
// filter, keyed by identity. Recurring masters are kept regardless of age;
// anything else is dropped once its start falls behind the retention window,
// so it neither gets inserted nor protects an existing event from deletion.
func (r *Reconciler) buildSnapshot(events []feed.Event) (map[string]*gcal.Event, error) {
	cutoff := r.clock.Now().Add(-time.Duration(r.pastDays) * 24 * time.Hour)

	snapshot := make(map[string]*gcal.Event)
	for _, ev := range events {
		if !ev.IsRecurring() || ev.IsOverride() {
			start, err := r.canonicalizer.StartTime(ev)
			if err != nil {
				log.Warnf("skipping event %s: %v", ev.UID, err)
				continue
			}
			if start.Before(cutoff) {
				continue
			}
		}
		uid, resource, err := r.canonicalizer.Canonicalize(ev)
		if err != nil {
			return nil, err
		}
		snapshot[uid] = resource
	}
	return snapshot, nil
}

func fingerprintOf(ev *gcal.Event) string {
	if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private == nil {
		return ""
	}
	return ev.ExtendedProperties.Private[canonical.PropFingerprint]
}

// mutationError surfaces the offending identity and, when present, its
// recurrence lines, then propagates the failure to abort the run.
func mutationError(op string, uid string, ev *gcal.Event, err error) error {
	log.Errorf("%s failed for %s: %v", op, uid, err)
	if len(ev.Recurrence) > 0 {
		log.Errorf("recurrence lines for %s: %v", uid, ev.Recurrence)
	}
	return fmt.Errorf("%s %s: %w", op, uid, err)
}

func contentHash(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

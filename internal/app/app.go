package app

import (
	"context"
	"fmt"
	"time"

	"github.com/icalsync/icalsync/internal/config"
	"github.com/icalsync/icalsync/internal/utils"
	"github.com/icalsync/icalsync/pkg/canonical"
	"github.com/icalsync/icalsync/pkg/feed"
	"github.com/icalsync/icalsync/pkg/google"
	"github.com/icalsync/icalsync/pkg/syncer"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, the feed source, the target store client
// and the reconciler.
type Application struct {
	cfg        config.Application
	reconciler *syncer.Reconciler
}

// NewApplication constructs the fully wired sync application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver, err := canonical.NewResolver(cfg.Sync.Timezone, cfg.Sync.TimezoneAliases, cfg.Sync.StrictTimezones)
	if err != nil {
		return nil, err
	}

	service, err := google.NewCalendarService(context.Background(), cfg.Google.CredentialsFile)
	if err != nil {
		return nil, err
	}

	// One clock feeds both the listing window and the retention cutoff.
	clock := utils.SystemClock{}
	fetcher := feed.NewFetcher(cfg.Feed.URL, time.Duration(cfg.Feed.TimeoutSeconds)*time.Second)
	store := google.NewCalendar(service, cfg.Google.CalendarId, cfg.Sync.SourceTag, clock)
	canonicalizer := canonical.NewCanonicalizer(resolver, cfg.Sync.SourceTag)
	reconciler := syncer.NewReconciler(fetcher, store, canonicalizer, cfg.Sync.StateFile, cfg.Sync.PastDays, clock)

	return &Application{cfg: cfg, reconciler: reconciler}, nil
}

// Run performs a single sync pass, or blocks running passes on a cron
// schedule when one is configured. In scheduled mode a failed pass is logged
// and the next tick retries from scratch.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Sync.Schedule == "" {
		return a.reconciler.Run(ctx)
	}

	c := cron.New()
	_, err := c.AddFunc(a.cfg.Sync.Schedule, func() {
		if err := a.reconciler.Run(ctx); err != nil {
			log.Errorf("sync run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", a.cfg.Sync.Schedule, err)
	}

	log.Infof("Starting scheduler with spec %q", a.cfg.Sync.Schedule)
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

package google

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	googleauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewCalendarService builds an authenticated Calendar API client from a
// service account credentials file.
func NewCalendarService(ctx context.Context, credentialsFile string) (*calendar.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}
	jwt, err := googleauth.JWTConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}
	service, err := calendar.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %v", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

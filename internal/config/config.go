package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Feed   Feed   `koanf:"feed"`
	Google Google `koanf:"google"`
	Sync   Sync   `koanf:"sync"`
}

type Feed struct {
	URL            string `koanf:"url"`
	TimeoutSeconds int    `koanf:"timeoutseconds"`
}

type Google struct {
	CalendarId      string `koanf:"calendarid"`
	CredentialsFile string `koanf:"credentialsfile"`
}

type Sync struct {
	Timezone        string            `koanf:"timezone"`
	PastDays        int               `koanf:"pastdays"`
	StateFile       string            `koanf:"statefile"`
	SourceTag       string            `koanf:"sourcetag"`
	Schedule        string            `koanf:"schedule"`
	StrictTimezones bool              `koanf:"stricttimezones"`
	TimezoneAliases map[string]string `koanf:"timezonealiases"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Feed: Feed{
			TimeoutSeconds: 30,
		},
		Sync: Sync{
			Timezone:  "Europe/Paris",
			PastDays:  30,
			StateFile: ".state.json",
			SourceTag: "ics_feed",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "ICALSYNC_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "ICALSYNC_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// Validate reports missing required settings. Called once at startup; any
// error here is fatal.
func (a Application) Validate() error {
	var missing []string
	if a.Feed.URL == "" {
		missing = append(missing, "feed.url")
	}
	if a.Google.CalendarId == "" {
		missing = append(missing, "google.calendarid")
	}
	if a.Google.CredentialsFile == "" {
		missing = append(missing, "google.credentialsfile")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if a.Sync.PastDays < 0 {
		return fmt.Errorf("sync.pastdays must not be negative")
	}
	return nil
}

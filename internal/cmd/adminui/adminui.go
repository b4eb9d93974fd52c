// Package adminui configures and starts the admin page controllers inside
// the browser bundle.
package adminui

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/campusdesk/backoffice/internal/platform/config"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/login"
	"github.com/campusdesk/backoffice/internal/ui/notify"
	"github.com/campusdesk/backoffice/internal/ui/page"
)

// Config holds the bundle configuration.
type Config struct {
	Locale             string        `env:"BACKOFFICE_LOCALE" envDefault:"ru-RU"`
	FlashDelay         time.Duration `env:"BACKOFFICE_FLASH_DELAY" envDefault:"5s"`
	ErrorFallbackDelay time.Duration `env:"BACKOFFICE_ERROR_FALLBACK_DELAY" envDefault:"10s"`
	FetchTimeout       time.Duration `env:"BACKOFFICE_FETCH_TIMEOUT" envDefault:"8s"`
}

// ParseConfig reads Config from environ, the variables the host page hands
// to the Go runtime.
func ParseConfig(environ []string) (Config, error) {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			vars[key] = value
		}
	}
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, vars); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Browser is the set of page handles the bundle runs against.
type Browser struct {
	Doc   dom.Document
	Win   dom.Window
	Clock clock.Clock
}

// Deps assembles the page dependencies. A <body data-locale> attribute
// overrides the configured locale.
func Deps(cfg Config, b Browser) page.Deps {
	locale := cfg.Locale
	if body := b.Doc.Body(); body != nil {
		if v := strings.TrimSpace(body.Data("locale")); v != "" {
			locale = v
		}
	}
	client := fetch.New(b.Win)
	client.Timeout = cfg.FetchTimeout
	client.Token = func() (string, bool) { return login.Token(b.Win.Storage()) }
	return page.Deps{
		Doc:       b.Doc,
		Win:       b.Win,
		Clock:     b.Clock,
		Client:    client,
		Localizer: catalog.NewLocalizer(nil, locale),
		Notify: notify.Config{
			AutoDelay:          cfg.FlashDelay,
			ErrorFallbackDelay: cfg.ErrorFallbackDelay,
		},
	}
}

// Run starts the page controller and keeps it until ctx ends. An unknown
// page is logged, not fatal: its notifications still run.
func Run(ctx context.Context, cfg Config, b Browser) error {
	ctrl, err := page.Start(Deps(cfg, b))
	if err != nil {
		log.Printf("start page: %v", err)
	} else {
		log.Printf("page %s ready", ctrl.Descriptor.Name)
	}
	<-ctx.Done()
	ctrl.Close()
	return nil
}

// Package preview configures and starts the fixture-backed preview server.
package preview

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/campusdesk/backoffice/internal/platform/cmd"
	"github.com/campusdesk/backoffice/internal/services/preview"
)

// Config holds the preview command configuration.
type Config struct {
	HTTPAddr      string `env:"BACKOFFICE_PREVIEW_HTTP_ADDR" envDefault:"localhost:8095"`
	AssetsDir     string `env:"BACKOFFICE_PREVIEW_ASSETS_DIR"`
	Fixtures      string `env:"BACKOFFICE_PREVIEW_FIXTURES"`
	CSRFKey       string `env:"BACKOFFICE_PREVIEW_CSRF_KEY"`
	Locale        string `env:"BACKOFFICE_LOCALE" envDefault:"ru-RU"`
	SecureCookies bool   `env:"BACKOFFICE_PREVIEW_SECURE_COOKIES"`
}

// ParseConfig loads env defaults and then applies flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.AssetsDir, "assets-dir", cfg.AssetsDir, "directory holding backoffice.wasm and wasm_exec.js")
	fs.StringVar(&cfg.Fixtures, "fixtures", cfg.Fixtures, "YAML fixture file (embedded defaults when empty)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "page locale")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the preview server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePreview, func(ctx context.Context) error {
		server, err := preview.NewServer(ctx, preview.Config{
			HTTPAddr:      cfg.HTTPAddr,
			AssetsDir:     cfg.AssetsDir,
			Fixtures:      cfg.Fixtures,
			CSRFKey:       cfg.CSRFKey,
			Locale:        cfg.Locale,
			SecureCookies: cfg.SecureCookies,
		})
		if err != nil {
			return fmt.Errorf("init preview server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve preview: %w", err)
		}
		return nil
	})
}

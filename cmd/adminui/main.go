//go:build js && wasm

// Package main is the admin panel browser bundle. It binds the controllers
// of the current page and keeps the Go runtime alive for their callbacks.
package main

import (
	"context"
	"log"
	"os"

	adminuicmd "github.com/campusdesk/backoffice/internal/cmd/adminui"
	entrypoint "github.com/campusdesk/backoffice/internal/platform/cmd"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom/jsdom"
)

func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceAdminUI))
	log.SetFlags(0)
	cfg, err := adminuicmd.ParseConfig(os.Environ())
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	browser := adminuicmd.Browser{
		Doc:   jsdom.NewDocument(),
		Win:   jsdom.NewWindow(),
		Clock: clock.Real{},
	}
	// The page lives as long as the tab; nothing cancels this context.
	if err := adminuicmd.Run(context.Background(), cfg, browser); err != nil {
		log.Fatalf("run: %v", err)
	}
}

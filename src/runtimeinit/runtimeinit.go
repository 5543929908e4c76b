package runtimeinit

import (
	"fmt"
	"log"

	"win-dialog-shot/src/clipboard"
	"win-dialog-shot/src/config"
	"win-dialog-shot/src/geometry"
	"win-dialog-shot/src/screenshot"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// DisplayBounds reports the virtual desktop; nil uses screenshot.VirtualBounds.
	DisplayBounds func() (geometry.Rect, error)
	// RequireDisplay turns a failed display check into a startup error.
	RequireDisplay bool
}

// Bootstrap loads configuration, configures logging and checks that a desktop
// can be captured before any trigger is accepted.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	if cfg.EnvPath != "" {
		log.Printf("[INFO] Configuration loaded from %s", cfg.EnvPath)
	}

	displayBounds := opts.DisplayBounds
	if displayBounds == nil {
		displayBounds = screenshot.VirtualBounds
	}
	bounds, err := displayBounds()
	switch {
	case err != nil && opts.RequireDisplay:
		return nil, fmt.Errorf("display check failed: %w", err)
	case err != nil:
		log.Printf("[INFO] Display check failed: %v", err)
	default:
		log.Printf("[INFO] Virtual desktop: %s", bounds)
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("[INFO] Portable clipboard backend unavailable: %v", err)
	}

	return cfg, nil
}

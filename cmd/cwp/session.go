package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/robby/cwp/internal/app"
	"github.com/robby/cwp/internal/config"
	"github.com/robby/cwp/internal/document"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/logging"
	"github.com/robby/cwp/internal/source"
)

// session is a loaded tracker plus the resources behind it.
type session struct {
	cfg     config.Config
	log     zerolog.Logger
	tracker *app.Tracker
	close   func()
}

type sessionOptions struct {
	// Quiet discards logs unless a log file is configured, so they cannot
	// draw over a full screen UI.
	Quiet    bool
	OnChange func(*app.Tracker)
}

// openSession loads configuration, builds the item source and document and
// restores the mission lists.
func openSession(ctx context.Context, o sessionOptions) (*session, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	if o.Quiet && cfg.Log.File == "" {
		log = zerolog.Nop()
	}

	opts := app.Options{
		Scene:           domain.ParseScene(cfg.Scene),
		RefreshInterval: cfg.RefreshInterval,
		OnChange:        o.OnChange,
	}
	if cfg.Vessel != "" {
		opts.Vessel = uuid.MustParse(cfg.Vessel) // validated by config.Load
	}

	doc := document.New(cfg.Document, cfg.Section, logging.Component(log, "document"))
	src := source.Open(source.OpenOptions{
		Items:        cfg.Items,
		URL:          cfg.Source.URL,
		TokenEnv:     cfg.Source.TokenEnv,
		TokenCommand: strings.Fields(cfg.Source.TokenCommand),
	}, log)
	tracker := app.New(src, doc, opts, log)
	if err := tracker.Load(ctx); err != nil {
		closeLog()
		return nil, err
	}

	log.Debug().
		Str("document", cfg.Document).
		Str("section", cfg.Section).
		Int("lists", len(tracker.Names())).
		Msg("session opened")

	return &session{cfg: cfg, log: log, tracker: tracker, close: closeLog}, nil
}

// commit saves the mission lists and releases the session.
func (s *session) commit() error {
	defer s.close()
	if err := s.tracker.Save(); err != nil {
		return fmt.Errorf("saving mission lists: %w", err)
	}
	return nil
}

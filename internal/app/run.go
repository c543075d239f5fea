package app

import (
	"context"
	"errors"
	"time"

	"github.com/robby/cwp/internal/source"
)

// Run keeps the registry in step with the source and the document until ctx
// is done: it refreshes every RefreshInterval, applies source events as they
// arrive and reloads when the document changes on disk. The registry is saved
// once more before Run returns.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.opts.RefreshInterval)
	defer ticker.Stop()

	var events <-chan source.Event
	if n, ok := t.src.(source.Notifier); ok {
		events = n.Events()
	}

	var docChanges <-chan struct{}
	if t.doc != nil {
		ch, err := t.doc.Watch(ctx)
		if err != nil {
			t.log.Warn().Err(err).Msg("document watch unavailable, external edits will not be picked up")
		} else {
			docChanges = ch
		}
	}

	t.log.Info().Dur("interval", t.opts.RefreshInterval).Msg("tracker running")
	t.changed()

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("tracker stopping")
			return t.Save()

		case <-ticker.C:
			if err := t.Refresh(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				t.log.Warn().Err(err).Msg("refresh failed")
				continue
			}
			t.changed()

		case ev := <-events:
			t.HandleEvent(ev)
			t.changed()

		case _, ok := <-docChanges:
			if !ok {
				docChanges = nil
				continue
			}
			t.log.Info().Msg("document changed on disk, reloading")
			if err := t.Reload(ctx); err != nil {
				t.log.Warn().Err(err).Msg("reload failed")
				continue
			}
			t.changed()
		}
	}
}

func (t *Tracker) changed() {
	if t.opts.OnChange != nil {
		t.opts.OnChange(t)
	}
}

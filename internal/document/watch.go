package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 50 * time.Millisecond

// Watch notifies on the returned channel whenever the document changes on
// disk through something other than this Document's own Save. Bursts of
// events are coalesced. The channel is closed once ctx is done.
func (d *Document) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the directory: atomic replacement swaps the inode under the file.
	dir := filepath.Dir(d.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)

	var (
		mu     sync.Mutex
		timer  *time.Timer
		closed bool
	)
	fire := func() {
		data, err := os.ReadFile(d.path)
		if err != nil || d.isOwnWrite(data) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	go func() {
		defer func() {
			_ = watcher.Close()
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			closed = true
			close(changes)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(d.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, fire)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.log.Warn().Err(err).Str("path", d.path).Msg("document watch error")
			}
		}
	}()

	return changes, nil
}

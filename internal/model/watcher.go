package model

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the classifier when the artifact file is replaced on disk.
// It watches the containing directory rather than the file itself, so a
// rename-over-the-old-file swap is still seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	reload  func() error
	logger  zerolog.Logger
}

func NewWatcher(artifactPath string, reload func() error, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(artifactPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", artifactPath, err)
	}

	return &Watcher{
		watcher: fsWatcher,
		path:    filepath.Clean(artifactPath),
		reload:  reload,
		logger:  logger,
	}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Info().Str("path", w.path).Str("op", event.Op.String()).
				Msg("model artifact changed, reloading")

			if err := w.reload(); err != nil {
				w.logger.Error().Err(err).Msg("model reload failed, keeping previous session")
				continue
			}
			w.logger.Info().Msg("model reloaded")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

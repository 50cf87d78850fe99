// Package watcher drives the import pipeline from an inbox directory: files
// dropped there are ingested into a configured library and removed on
// success. It is a second caller of the same orchestrator the upload route
// uses, nothing more.
package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/LuigiEspinosa/digital-library/pkg/config"
	"github.com/LuigiEspinosa/digital-library/pkg/importer"
	"github.com/LuigiEspinosa/digital-library/pkg/mediafile"
)

type Watcher struct {
	cfg           *config.Config
	importService *importer.Service
	log           logger.Logger
	fsWatcher     *fsnotify.Watcher
	done          chan struct{}
}

func New(cfg *config.Config, db *bun.DB) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Watcher{
		cfg:           cfg,
		importService: importer.NewService(cfg, db),
		log:           logger.New().Data(logger.Data{"inbox": cfg.InboxDir}),
		fsWatcher:     fsWatcher,
		done:          make(chan struct{}),
	}, nil
}

// Start scans files already sitting in the inbox, then follows filesystem
// events until Stop. It returns once the event loop is running.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.InboxDir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := w.fsWatcher.Add(w.cfg.InboxDir); err != nil {
		return errors.WithStack(err)
	}

	entries, err := os.ReadDir(w.cfg.InboxDir)
	if err != nil {
		return errors.WithStack(err)
	}

	go func() {
		defer close(w.done)

		for _, entry := range entries {
			if !entry.IsDir() {
				w.handleFile(ctx, filepath.Join(w.cfg.InboxDir, entry.Name()))
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
					w.handleFile(ctx, event.Name)
				}
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				w.log.Err(err).Error("inbox watch error")
			}
		}
	}()

	w.log.Info("watching inbox", logger.Data{"library_id": w.cfg.InboxLibraryID})
	return nil
}

// Stop closes the event stream and waits for the loop to drain.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	<-w.done
	return errors.WithStack(err)
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	log := w.log.Data(logger.Data{"path": path})

	// Non-book files in the inbox are none of our business.
	if _, ok := mediafile.DetectFormat(path); !ok {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	if err := w.waitForStableSize(ctx, path); err != nil {
		log.Err(err).Warn("file never stabilized, skipping")
		return
	}

	// Stage a private copy so a writer re-opening the inbox file can't race
	// the pipeline's relocation.
	staged, err := w.stage(path)
	if err != nil {
		log.Err(err).Error("failed to stage inbox file")
		return
	}

	// The pipeline consumes the staged copy on a fresh import; deduped and
	// failed imports leave it behind.
	defer os.Remove(staged)

	_, err = w.importService.ImportBook(ctx, w.cfg.InboxLibraryID, staged, filepath.Base(path))
	if err != nil {
		log.Err(err).Error("inbox import failed, leaving file in place")
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Err(err).Warn("failed to remove imported inbox file")
	}
}

// waitForStableSize polls until the file size stops changing for the
// configured stability window. Writers that copy large books into the inbox
// are still writing when the first event fires.
func (w *Watcher) waitForStableSize(ctx context.Context, path string) error {
	var lastSize int64 = -1
	stableSince := time.Now()

	for {
		info, err := os.Stat(path)
		if err != nil {
			return errors.WithStack(err)
		}
		if info.Size() != lastSize {
			lastSize = info.Size()
			stableSince = time.Now()
		} else if time.Since(stableSince) >= w.cfg.WatchStabilityWindow {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(w.cfg.WatchPollInterval):
		}
	}
}

func (w *Watcher) stage(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "library-inbox-*")
	if err != nil {
		return "", errors.WithStack(err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.WithStack(err)
	}
	return tmp.Name(), nil
}

package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
	"github.com/agentdeck/agentdeck/pkg/safego"
)

// Watcher ingests custom skill bundles dropped into the skills directory.
// A bundle becomes visible when its skill.yaml is written.
type Watcher struct {
	service *Service
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

func NewWatcher(service *Service, dir string, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create skills watcher: %w", err)
	}
	return &Watcher{
		service: service,
		dir:     dir,
		watcher: fsWatcher,
		logger:  logger,
	}, nil
}

// Start ingests bundles already present, then watches for new ones until
// ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create skills dir: %w", err)
	}
	if err := w.ingestExisting(ctx); err != nil {
		return err
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch skills dir: %w", err)
	}

	safego.Go(w.logger, "skills-watcher", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(ctx, event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("Skills watcher error", zap.Error(err))
			}
		}
	})

	w.logger.Info("Skills directory watching started", zap.String("dir", w.dir))
	return nil
}

func (w *Watcher) ingestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read skills dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		bundleDir := filepath.Join(w.dir, entry.Name())
		if _, err := os.Stat(filepath.Join(bundleDir, ManifestFileName)); err != nil {
			continue
		}
		w.ingest(ctx, bundleDir)
	}
	return nil
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// Bundles announce themselves through their manifest. A new bundle
	// directory is also probed directly in case the manifest was written
	// before the directory event fired.
	var bundleDir string
	switch {
	case filepath.Base(event.Name) == ManifestFileName:
		bundleDir = filepath.Dir(event.Name)
	default:
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if _, err := os.Stat(filepath.Join(event.Name, ManifestFileName)); err != nil {
			return
		}
		bundleDir = event.Name
	}

	w.ingest(ctx, bundleDir)
}

func (w *Watcher) ingest(ctx context.Context, bundleDir string) {
	skill, err := w.service.IngestCustom(ctx, bundleDir)
	if err != nil {
		if domainErrors.IsAlreadyExists(err) {
			return
		}
		w.logger.Warn("Skill bundle ingestion failed",
			zap.String("dir", bundleDir),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("Skill bundle ingested",
		zap.String("dir", bundleDir),
		zap.String("skill_id", skill.ID()),
		zap.String("status", string(skill.Status())),
	)
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

package security

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thushan/warden/internal/logger"
)

const DefaultRulesDebounce = 300 * time.Millisecond

// RulesWatcher reloads a rules file into a scanner when it changes on disk.
// A file that fails to parse or compile is logged and the active set is kept.
type RulesWatcher struct {
	scanner  *ThreatScanner
	logger   logger.StyledLogger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	stopOnce sync.Once
	done     chan struct{}
}

func NewRulesWatcher(path string, scanner *ThreatScanner, log logger.StyledLogger) *RulesWatcher {
	return &RulesWatcher{
		path:     filepath.Clean(path),
		scanner:  scanner,
		logger:   log,
		debounce: DefaultRulesDebounce,
		done:     make(chan struct{}),
	}
}

// Start watches the parent directory so editors that replace the file by
// rename are still seen
func (rw *RulesWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(rw.path)); err != nil {
		_ = watcher.Close()
		return err
	}
	rw.watcher = watcher

	go rw.loop(ctx)

	rw.logger.Info("Watching rules file for changes", "path", rw.path)
	return nil
}

func (rw *RulesWatcher) loop(ctx context.Context) {
	defer close(rw.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != rw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(rw.debounce)
			} else {
				timer.Reset(rw.debounce)
			}
			fire = timer.C
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logger.Warn("Rules watcher error", "error", err)
		case <-fire:
			fire = nil
			rw.Reload()
		}
	}
}

// Reload compiles the rules file and swaps it in. Returns false when the
// file was rejected.
func (rw *RulesWatcher) Reload() bool {
	rs, err := LoadRuleSet(rw.path)
	if err != nil {
		rw.logger.Error("Rules reload rejected, keeping current set",
			"path", rw.path,
			"version", rw.scanner.Rules().Version,
			"error", err)
		return false
	}

	previous := rw.scanner.SetRules(rs)
	rw.logger.Info("Rules reloaded",
		"path", rw.path,
		"previous_version", previous.Version,
		"version", rs.Version,
		"sql", len(rs.sql),
		"xss", len(rs.xss),
		"probe_paths", len(rs.probePaths))
	return true
}

func (rw *RulesWatcher) Stop() {
	rw.stopOnce.Do(func() {
		if rw.watcher != nil {
			_ = rw.watcher.Close()
			<-rw.done
		}
	})
}

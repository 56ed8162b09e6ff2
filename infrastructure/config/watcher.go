package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"lorekeeper-backend/application/detectors"
)

// RulesWatcher reloads the detector keyword rules when the rules file changes,
// so rule tuning does not need a redeploy. Invalid files are logged and the
// previous rules stay active.
type RulesWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  detectors.Rules
	mu       sync.RWMutex
	onChange []func(detectors.Rules)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewRulesWatcher loads the initial rules and starts watching the file and its
// directory (editors often replace files by rename).
func NewRulesWatcher(path string, logger *zap.Logger) (*RulesWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rules, err := LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial rules: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch rules file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch rules directory", zap.Error(err))
	}

	return &RulesWatcher{
		path:    path,
		watcher: watcher,
		current: rules,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for rule file changes.
func (w *RulesWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("rules watcher started", zap.String("path", w.path))
}

// Stop stops the watcher.
func (w *RulesWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *RulesWatcher) watchLoop() {
	// Debounce rapid write sequences into one reload.
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("rules watcher error", zap.Error(err))
		}
	}
}

func (w *RulesWatcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.logger.Error("rules reload failed, keeping current rules",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.current = rules
	handlers := append([]func(detectors.Rules){}, w.onChange...)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(rules)
	}
	w.logger.Info("rules reloaded", zap.String("path", w.path))
}

// OnChange registers a callback invoked after each successful reload.
func (w *RulesWatcher) OnChange(handler func(detectors.Rules)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the active rules.
func (w *RulesWatcher) Current() detectors.Rules {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

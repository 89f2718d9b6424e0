package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fitgauge/internal/errors"
)

// FrameworksWatcher watches the external frameworks file and hot-reloads it
// into the snapshot store. Running sessions keep the snapshot they started
// with; only sessions created after a reload see the new version.
type FrameworksWatcher struct {
	mu sync.RWMutex

	file     string
	lastMod  time.Time
	store    *SnapshotStore
	baseline ScoringConfig

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger *errors.Logger

	running bool
}

// NewFrameworksWatcher creates a watcher for the given frameworks file. The
// baseline scoring config is what file sections merge on top of, so removing
// a section from the file falls back to defaults rather than stale values.
func NewFrameworksWatcher(file string, baseline ScoringConfig, store *SnapshotStore, debounceDelay time.Duration, logger *errors.Logger) (*FrameworksWatcher, error) {
	if file == "" {
		return nil, fmt.Errorf("frameworks file path is required")
	}
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	return &FrameworksWatcher{
		file:          file,
		store:         store,
		baseline:      baseline.clone(),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}, nil
}

// Start begins watching the frameworks file for changes
func (fw *FrameworksWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("frameworks watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	if stat, err := os.Stat(fw.file); err == nil {
		fw.lastMod = stat.ModTime()
	}

	if err := fw.addFileToWatcher(); err != nil {
		if closeErr := fw.fsWatcher.Close(); closeErr != nil && fw.logger != nil {
			fw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return err
	}

	fw.running = true
	go fw.watchLoop()

	if fw.logger != nil {
		fw.logger.Info("Frameworks file watcher started",
			"file", fw.file,
			"debounce_delay", fw.debounceDelay)
	}
	return nil
}

// Stop stops the frameworks file watcher
func (fw *FrameworksWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}

	close(fw.stopChan)

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	if fw.fsWatcher != nil {
		if err := fw.fsWatcher.Close(); err != nil {
			if fw.logger != nil {
				fw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	fw.running = false

	if fw.logger != nil {
		fw.logger.Info("Frameworks file watcher stopped")
	}

	return nil
}

// addFileToWatcher watches the file and its directory. Watching the directory
// catches atomic writes done as rename operations.
func (fw *FrameworksWatcher) addFileToWatcher() error {
	if err := fw.fsWatcher.Add(fw.file); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch file %s: %w", fw.file, err)
		}
		if fw.logger != nil {
			fw.logger.Info("Watching directory for frameworks file",
				"file", fw.file, "directory", filepath.Dir(fw.file))
		}
	}

	dir := filepath.Dir(fw.file)
	if err := fw.fsWatcher.Add(dir); err != nil {
		if fw.logger != nil {
			fw.logger.Warn("Failed to watch directory for atomic writes",
				"directory", dir, "error", err)
		}
	}

	return nil
}

// hasFileChanged checks if the file has been modified since last check
func (fw *FrameworksWatcher) hasFileChanged() bool {
	stat, err := os.Stat(fw.file)
	if err != nil {
		return false
	}

	if stat.ModTime().After(fw.lastMod) {
		fw.lastMod = stat.ModTime()
		return true
	}

	return false
}

// watchLoop is the main event loop for file watching
func (fw *FrameworksWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}

			if fw.shouldProcessEvent(event) {
				fw.scheduleReload()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			if fw.logger != nil {
				fw.logger.LogError(err, "File watcher error")
			}

		case <-fw.reloadChan:
			// Debounced reload trigger
			if fw.hasFileChanged() {
				fw.reload()
			}

		case <-fw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (fw *FrameworksWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != fw.file && filepath.Base(event.Name) != filepath.Base(fw.file) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (fw *FrameworksWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// reload re-reads the frameworks file, merges it over the baseline scoring
// config, and installs the result as a new snapshot. A bad file keeps the
// current snapshot in place.
func (fw *FrameworksWatcher) reload() {
	loaded, err := readFrameworksFile(fw.file)
	if err != nil {
		if fw.logger != nil {
			fw.logger.LogError(err, "Frameworks file reload failed, keeping current snapshot")
		}
		return
	}

	merged := fw.baseline.clone()
	mergeScoring(&merged, loaded)

	snapshot, err := fw.store.Replace(merged, "")
	if err != nil {
		if fw.logger != nil {
			fw.logger.LogError(err, "Frameworks file reload rejected, keeping current snapshot")
		}
		return
	}

	if fw.logger != nil {
		fw.logger.Info("Frameworks file reloaded",
			"file", fw.file,
			"version", snapshot.Version)
	}
}

// IsRunning returns whether the watcher is currently running
func (fw *FrameworksWatcher) IsRunning() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

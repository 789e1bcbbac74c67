package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 100 * time.Millisecond

// Watch reloads the configuration whenever the file is changed by someone
// else, until ctx is cancelled. Change callbacks fire after each reload.
func (m *Manager) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	// editors replace files, so watch the directory
	dir := filepath.Dir(m.configPath)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	m.log.Debug().Str("dir", dir).Msg("watching configuration")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(m.configPath) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			m.reloadIfChanged()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			m.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (m *Manager) reloadIfChanged() {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read changed configuration")
		return
	}

	m.mu.Lock()
	own := bytes.Equal(data, m.lastSaved)
	m.mu.Unlock()
	if own {
		return
	}

	if err := m.Load(); err != nil {
		m.log.Warn().Err(err).Msg("failed to reload configuration")
		return
	}
	m.log.Info().Str("path", m.configPath).Msg("configuration reloaded")
}

package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch re-parses the config file whenever it changes and calls onChange
// with the fresh, validated config. Broken edits are logged and skipped; the
// last good config stays in effect. Events are debounced because editors
// commonly emit several write/rename events per save.
//
// Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log zerolog.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return err
	}

	const debounce = 300 * time.Millisecond
	var timer *time.Timer
	var timerCh <-chan time.Time

	reload := func() {
		cfg, err := Parse(path)
		if err != nil {
			log.Warn().Err(err).Msg("config reload skipped: parse failed")
			return
		}
		if err := cfg.Validate(); err != nil {
			log.Warn().Err(err).Msg("config reload skipped: validation failed")
			return
		}
		log.Info().Str("path", path).Msg("config reloaded")
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Atomic-save editors replace the file; re-add the watch so we
			// keep following the path rather than the old inode.
			if ev.Op&fsnotify.Rename != 0 {
				_ = w.Add(path)
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

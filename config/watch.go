package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rjeczalik/notify"
)

// settle coalesces the burst of events editors produce for a single save.
const settle = 200 * time.Millisecond

// Watch calls onChange after any of files is written, created or replaced, until ctx is done.
// Parent directories are watched so that files replaced by rename keep being observed.
func Watch(ctx context.Context, files []string, onChange func()) error {
	if len(files) == 0 {
		<-ctx.Done()
		return nil
	}

	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return errors.Wrapf(err, "error resolving %s", f)
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	events := make(chan notify.EventInfo, 32)
	defer notify.Stop(events)
	for dir := range dirs {
		if err := notify.Watch(dir, events, notify.Write, notify.Create, notify.Rename); err != nil {
			return errors.Wrapf(err, "error watching %s", dir)
		}
	}

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if wanted[ev.Path()] {
				timer.Reset(settle)
			}
		case <-timer.C:
			onChange()
		}
	}
}

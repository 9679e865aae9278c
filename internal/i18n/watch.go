package i18n

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	applog "shopfront/internal/log"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the tables when a locale file changes, until ctx is done.
// Editors write in bursts, so changes are batched.
func (b *Bundle) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(b.dir); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			applog.L().Warn("i18n.watch.error", zap.Error(err))
		case <-pending:
			pending = nil
			if err := b.Reload(); err != nil {
				applog.L().Error("i18n.reload.failed", zap.Error(err))
				continue
			}
			applog.L().Info("i18n.reload", zap.String("dir", b.dir))
		}
	}
}

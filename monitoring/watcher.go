package monitoring

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"churnapi/logger"
)

// ArtifactWatcher 监控已加载构件在磁盘上的变化
//
// 构件只在启动时加载一次, 变化只会被记录, 需要重启服务才能生效.
type ArtifactWatcher struct {
	watcher   *fsnotify.Watcher
	artifacts map[string]string // cleaned path -> artifact name
}

// NewArtifactWatcher 创建构件监控器, artifacts 为 名称 -> 路径
func NewArtifactWatcher(artifacts map[string]string) (*ArtifactWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}

	w := &ArtifactWatcher{
		watcher:   watcher,
		artifacts: make(map[string]string, len(artifacts)),
	}

	dirs := make(map[string]struct{})
	for name, path := range artifacts {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "resolve %s", path)
		}
		w.artifacts[abs] = name
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	// 监控目录而不是文件, 原子替换(rename)也能被捕获
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
	}
	return w, nil
}

// Run 处理文件事件直到ctx结束
func (w *ArtifactWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("artifact watcher error: %v", err)
		}
	}
}

func (w *ArtifactWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	name, ok := w.artifacts[abs]
	if !ok {
		return
	}

	ArtifactChangeCount.WithLabelValues(name).Inc()
	logger.With("artifact", name, "path", abs, "op", event.Op.String()).
		Warn("artifact changed on disk, restart the service to serve it")
}

// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听数据文件，内容变化后回调
type FileMonitor struct {
	watchDir string
	target   string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	lastMod  time.Time
	lastSize int64
	mu       sync.Mutex
}

// NewFileMonitor 监听 path 所在目录(编辑器常用改名方式保存文件)
func NewFileMonitor(path string, debounce time.Duration) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	m := &FileMonitor{
		watchDir: dir,
		target:   target,
		debounce: debounce,
		watcher:  watcher,
	}
	m.changed()
	return m, nil
}

// Watch 阻塞直到 ctx 取消或 watcher 出错，handler 在本 goroutine 中串行调用
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !m.matches(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				timer.Reset(m.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if m.changed() {
				handler(m.target)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close 释放 watcher
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

func (m *FileMonitor) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != m.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// changed 比较修改时间和大小，记录最新状态
func (m *FileMonitor) changed() bool {
	info, err := os.Stat(m.target)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if info.ModTime().Equal(m.lastMod) && info.Size() == m.lastSize {
		return false
	}
	m.lastMod = info.ModTime()
	m.lastSize = info.Size()
	return true
}

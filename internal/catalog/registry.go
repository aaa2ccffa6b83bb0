package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"sqlchat/internal/logger"
)

// Snapshot 是某一时刻的目录副本。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Source   string
	Catalog  Catalog
}

// ChangeListener 在目录重载后触发。
type ChangeListener func(Snapshot)

// Registry 持有当前目录，可选监听文件变化并热加载。
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry loads the catalog at path, or the built-in one when path is
// empty. With watch set, edits to the file are picked up without restart.
func NewRegistry(path string, watch bool) (*Registry, error) {
	path = strings.TrimSpace(path)
	r := &Registry{path: path}
	if path == "" {
		r.snapshot = Snapshot{Version: 1, LoadedAt: time.Now(), Source: "builtin", Catalog: Default()}
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if watch {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read catalog failed: %w", err)
		}
		v.OnConfigChange(func(evt fsnotify.Event) {
			if err := r.reload(); err != nil {
				logger.Errorf("catalog reload failed: %v", err)
				return
			}
			r.notifyListeners()
		})
		v.WatchConfig()
		r.v = v
	}
	return r, nil
}

// Current 返回当前目录。
func (r *Registry) Current() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot.Catalog
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// OnChange registers fn to run after every successful reload.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read catalog failed: %w", err)
	}
	cat, err := Parse(raw)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Source:   r.path,
		Catalog:  cat,
	}
	r.mu.Unlock()
	logger.Infof("Catalog %q loaded from %s: %d tables, %d glossary terms, %d examples",
		cat.Name, filepath.Base(r.path), len(cat.Tables), len(cat.Glossary), len(cat.Examples))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := r.snapshot
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("catalog listener")
			cb(snap)
		}(fn)
	}
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}

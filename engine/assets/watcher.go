package assets

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-scene/engine/core"
)

const DescriptionExt = ".xml"

/**
 * @brief DescriptionWatcher reports scene descriptions that changed on disk
 * so their cached trees can be dropped. Changes are collected on the watcher
 * goroutine and handed out by Poll on the scene goroutine.
 */
type DescriptionWatcher struct {
	fsnotify *fsnotify.Watcher
	dir      string

	mutex   sync.Mutex
	changed map[string]struct{}

	done     chan struct{}
	stopped  chan struct{}
	isClosed bool
}

func NewDescriptionWatcher(dir string) (*DescriptionWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(dir); err != nil {
		fsWatch.Close()
		return nil, err
	}

	dw := &DescriptionWatcher{
		fsnotify: fsWatch,
		dir:      dir,
		changed:  make(map[string]struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go dw.start()
	return dw, nil
}

func (dw *DescriptionWatcher) start() {
	defer close(dw.stopped)
	for {
		select {
		case e, ok := <-dw.fsnotify.Events:
			if !ok {
				return
			}
			// Handle create, modify, rename and remove the same way: the cached tree is stale.
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if name, ok := sceneNameFromPath(e.Name); ok {
				dw.mutex.Lock()
				dw.changed[name] = struct{}{}
				dw.mutex.Unlock()
			}

		case err, ok := <-dw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("description watcher: %s", err)

		case <-dw.done:
			return
		}
	}
}

func sceneNameFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), DescriptionExt) {
		return "", false
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

// Poll returns the names of the scenes whose description changed since the
// previous call.
func (dw *DescriptionWatcher) Poll() []string {
	dw.mutex.Lock()
	defer dw.mutex.Unlock()
	if len(dw.changed) == 0 {
		return nil
	}
	names := make([]string, 0, len(dw.changed))
	for n := range dw.changed {
		names = append(names, n)
	}
	dw.changed = make(map[string]struct{})
	return names
}

func (dw *DescriptionWatcher) Close() error {
	if dw.isClosed {
		return errors.New("description watcher already closed")
	}
	dw.isClosed = true
	close(dw.done)
	err := dw.fsnotify.Close()
	<-dw.stopped
	return err
}

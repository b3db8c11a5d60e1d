package utils

import (
	"fmt"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"path/filepath"
	"time"
)

func watcherLoop(filePath string, watcher *fsnotify.Watcher, debounce time.Duration, f func()) {
	var lastEvent time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			log.WithFields(log.Fields{
				"name": event.Name,
				"op":   event.Op,
			}).Debug("File watcher")
			if filepath.Clean(event.Name) == filePath &&
				(event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) &&
				time.Since(lastEvent) >= debounce {
				lastEvent = time.Now()
				f()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithField("error", fmt.Sprint(err)).Error("File watcher")
		}
	}
}

// NewFileWatcher calls f whenever filePath is written or created, at most once
// per debounce interval. Closing the returned watcher ends the loop.
func NewFileWatcher(filePath string, debounce time.Duration, f func()) (*fsnotify.Watcher, error) {
	var watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	filePath = filepath.Clean(filePath)
	go watcherLoop(filePath, watcher, debounce, f)
	if err = watcher.Add(filepath.Dir(filePath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

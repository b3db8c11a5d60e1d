package template

import (
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"os"
	"sync"
	"time"
)

const DefaultDebounce = time.Second

// Source delivers the template file's contents every time it changes. Only
// the most recent template is kept when the reader falls behind.
type Source struct {
	filePath  string
	debounce  time.Duration
	templates chan *Template
	watcher   *fsnotify.Watcher
	mtx       sync.Mutex
}

func NewSource(filePath string, debounce time.Duration) *Source {
	return &Source{
		filePath:  filePath,
		debounce:  debounce,
		templates: make(chan *Template, 1),
	}
}

func (s *Source) Templates() <-chan *Template {
	return s.templates
}

func (s *Source) Start() error {
	if s.watcher != nil {
		return nil
	}
	if _, err := os.Stat(s.filePath); err == nil {
		s.Reload()
	} else {
		log.WithField("path", s.filePath).Warn("Template not found, waiting for it")
	}
	watcher, err := utils.NewFileWatcher(s.filePath, s.debounce, s.Reload)
	if err != nil {
		return err
	}
	s.watcher = watcher
	return nil
}

func (s *Source) Stop() {
	if s.watcher == nil {
		return
	}
	if err := s.watcher.Close(); err != nil {
		log.WithError(err).Warn("Error closing template watcher")
	}
	s.watcher = nil
}

func (s *Source) Reload() {
	t, err := Load(s.filePath)
	if err != nil {
		log.WithFields(log.Fields{
			"path":  s.filePath,
			"error": err,
		}).Error("Invalid template")
		return
	}
	log.WithField("template", t).Info("Loaded template")
	s.deliver(t)
}

func (s *Source) deliver(t *Template) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	select {
	case <-s.templates:
	default:
	}
	s.templates <- t
}

// config_watcher.go - Live config reload: watches the config file and
// pushes theme changes into the running program.
package ui

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"chatdeck/pkg/config"
)

// ThemeChangedMsg is sent when an external config edit changes the theme.
type ThemeChangedMsg struct {
	Mode Mode
}

// msgSender is the slice of *tea.Program the watcher needs. Tests inject
// a recorder.
type msgSender interface {
	Send(tea.Msg)
}

// ConfigWatcher watches the config file's directory and, after a short
// debounce, reloads the file and forwards theme changes to the program.
// Watching the directory rather than the file survives editors that
// replace the file on save.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	sender   msgSender

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	started bool
	done    chan struct{}
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, sender msgSender) *ConfigWatcher {
	return &ConfigWatcher{
		path:     path,
		debounce: 200 * time.Millisecond,
		sender:   sender,
		done:     make(chan struct{}),
	}
}

// Start begins watching. Calling Start twice is a no-op.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	w.fw = fw
	w.started = true
	go w.loop(fw)
	return nil
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	fw := w.fw
	started := w.started
	w.fw = nil
	w.mu.Unlock()

	if fw != nil {
		fw.Close()
	}
	if started {
		<-w.done
	}
}

func (w *ConfigWatcher) loop(fw *fsnotify.Watcher) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors fire bursts of events per save; coalesce them.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		log.Printf("config watcher: reload failed: %v", err)
		return
	}
	mode := Mode(cfg.Theme)
	if !mode.IsValid() {
		return
	}
	w.sender.Send(ThemeChangedMsg{Mode: mode})
}

package internal

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultStopTimeout = 2 * time.Second

var (
	ErrWatchStartup = errors.New("failed to start filesystem watch")
	ErrStopTimeout  = errors.New("watcher did not stop in time")
)

// EventSink receives every change event that survives filtering. It is the
// only thing the watcher knows about its consumers.
type EventSink interface {
	Publish(e ChangeEvent)
}

// SinkFunc adapts a plain function to an EventSink.
type SinkFunc func(e ChangeEvent)

func (f SinkFunc) Publish(e ChangeEvent) { f(e) }

type Option func(w *Watcher)

func WithLogger(lg *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = lg
	}
}

func WithStopTimeout(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.stopTimeout = d
		}
	}
}

type Watcher struct {
	mu          sync.Mutex
	fw          *fsnotify.Watcher
	closed      chan struct{}
	wg          sync.WaitGroup
	logger      *log.Logger
	stopTimeout time.Duration

	// dirs
	// every directory currently under watch, used to tell whether a path that
	// no longer exists was a directory.
	dirsM sync.Mutex
	dirs  map[string]struct{}
}

func NewWatcher(options ...Option) *Watcher {
	w := Watcher{
		logger:      log.New(io.Discard, "", 0),
		stopTimeout: defaultStopTimeout,
		dirs:        make(map[string]struct{}),
	}

	for _, op := range options {
		op(&w)
	}

	return &w
}

// Start creates every root, watches each of them recursively and delivers
// change events to sink from a background goroutine. Calling Start on a
// running watcher does nothing.
func (w *Watcher) Start(roots []Root, sink EventSink) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fw != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Join(ErrWatchStartup, err)
	}
	w.fw = fw

	for _, r := range roots {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			w.abort()
			return errors.Join(ErrWatchStartup, fmt.Errorf("root %q: %w", r.Key, err))
		}
		if err := w.watchPath(fw, r.Path); err != nil {
			w.abort()
			return errors.Join(ErrWatchStartup, fmt.Errorf("root %q: %w", r.Key, err))
		}
		w.logger.Printf("watcher :: watching %s --> %s\n", r.Key, r.Path)
	}

	w.closed = make(chan struct{})
	w.wg.Add(1)
	go w.run(fw, sink, w.closed)

	return nil
}

// abort drops a half built fsnotify watcher, w.mu must be held.
func (w *Watcher) abort() {
	_ = w.fw.Close()
	w.fw = nil
	w.dirsM.Lock()
	w.dirs = make(map[string]struct{})
	w.dirsM.Unlock()
}

func (w *Watcher) watchPath(fw *fsnotify.Watcher, path string) error {
	files, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			err = w.watchPath(fw, filepath.Join(path, f.Name()))
			if err != nil {
				return err
			}
		}
	}

	err = fw.Add(path)
	if err != nil {
		return err
	}

	w.dirsM.Lock()
	w.dirs[path] = struct{}{}
	w.dirsM.Unlock()
	return nil
}

// forget drops path and everything below it from the directory set and
// reports whether path itself was a watched directory.
func (w *Watcher) forget(path string) bool {
	w.dirsM.Lock()
	defer w.dirsM.Unlock()

	_, was := w.dirs[path]
	prefix := path + string(filepath.Separator)
	for d := range w.dirs {
		if d == path || len(d) > len(prefix) && d[:len(prefix)] == prefix {
			delete(w.dirs, d)
		}
	}
	return was
}

func (w *Watcher) translate(fw *fsnotify.Watcher, e fsnotify.Event) ChangeEvent {
	event := ChangeEvent{
		Kind: KindOf(e.Op),
		Path: e.Name,
	}

	switch event.Kind {
	case Deleted, Moved:
		event.IsDirectory = w.forget(e.Name)
	default:
		fs, err := os.Stat(e.Name)
		if err != nil {
			// gone before we looked at it, fall back on what we knew.
			w.dirsM.Lock()
			_, event.IsDirectory = w.dirs[e.Name]
			w.dirsM.Unlock()
			break
		}
		event.IsDirectory = fs.IsDir()
		if event.Kind == Created && event.IsDirectory {
			if err := w.watchPath(fw, e.Name); err != nil {
				w.logger.Printf("watcher error :: can not watch new directory %s, %v\n", e.Name, err)
			}
		}
	}

	return event
}

func (w *Watcher) run(fw *fsnotify.Watcher, sink EventSink, closed chan struct{}) {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			if len(e.Name) == 0 || Ignored(filepath.Base(e.Name)) {
				continue
			}

			select {
			case <-closed:
				return
			default:
			}

			w.deliver(sink, w.translate(fw, e))
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("watcher error :: %v\n", err)
		case <-closed:
			return
		}
	}
}

func (w *Watcher) deliver(sink EventSink, e ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("watcher error :: sink failed on event %s, %v\n", e, r)
		}
	}()
	sink.Publish(e)
}

// Stop is safe to call any number of times, including before Start.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fw == nil {
		return nil
	}

	close(w.closed)
	err := w.fw.Close()
	w.fw = nil

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.stopTimeout):
		return ErrStopTimeout
	}

	w.dirsM.Lock()
	w.dirs = make(map[string]struct{})
	w.dirsM.Unlock()

	w.logger.Printf("watcher :: stopped\n")
	return err
}

//go:build linux

package source

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DefaultDeviceDir is where the kernel publishes input event nodes.
const DefaultDeviceDir = "/dev/input"

// Evdev streams key transitions from every event node under Dir, attaching
// to nodes that appear while running. Devices that cannot be opened are
// skipped with a log entry; a device disappearing ends only its own read
// loop. Non-key events are delivered as-is and left to the filter.
type Evdev struct {
	Dir    string
	Logger zerolog.Logger

	mu     sync.Mutex
	files  map[string]*os.File
	closed bool
}

// Run opens the current device nodes, watches Dir for new ones, and blocks
// until ctx is cancelled. It returns an error only if no subscription could
// be established at all (unreadable directory).
func (e *Evdev) Run(ctx context.Context, emit func(KeyEvent)) error {
	dir := e.Dir
	if dir == "" {
		dir = DefaultDeviceDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan input devices: %w", err)
	}

	e.files = make(map[string]*os.File)
	var wg sync.WaitGroup
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}
		e.attach(filepath.Join(dir, entry.Name()), emit, &wg)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		e.Logger.Warn().Err(err).Msg("Device hotplug watch unavailable")
	} else if err := watcher.Add(dir); err != nil {
		e.Logger.Warn().Err(err).Str("dir", dir).Msg("Device hotplug watch unavailable")
		watcher.Close()
		watcher = nil
	}

	if watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if !event.Has(fsnotify.Create) {
						continue
					}
					if !strings.HasPrefix(filepath.Base(event.Name), "event") {
						continue
					}
					// Give udev a moment to apply node permissions.
					time.Sleep(100 * time.Millisecond)
					e.attach(event.Name, emit, &wg)
				case _, ok := <-watcher.Errors:
					if !ok {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	<-ctx.Done()

	if watcher != nil {
		watcher.Close()
	}
	e.mu.Lock()
	e.closed = true
	for _, f := range e.files {
		f.Close() // unblocks the read loops
	}
	e.mu.Unlock()
	wg.Wait()
	return nil
}

func (e *Evdev) attach(path string, emit func(KeyEvent), wg *sync.WaitGroup) {
	f, err := os.Open(path)
	if err != nil {
		e.Logger.Debug().Err(err).Str("device", path).Msg("Skipping input device")
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		f.Close()
		return
	}
	if _, dup := e.files[path]; dup {
		e.mu.Unlock()
		f.Close()
		return
	}
	e.files[path] = f
	e.mu.Unlock()

	e.Logger.Info().Str("device", path).Msg("Subscribed to input device")

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.files, path)
			e.mu.Unlock()
			f.Close()
		}()

		var ev unix.InputEvent
		for {
			if err := binary.Read(f, binary.NativeEndian, &ev); err != nil {
				// Closed by shutdown or the device went away.
				return
			}
			emit(KeyEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value})
		}
	}()
}

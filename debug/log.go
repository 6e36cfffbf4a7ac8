// Package debug provides an opt-in file logger for the frame pipeline.
// Logging to a file keeps the terminal free for the monitor UI and stays
// off the hot path when disabled.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu       sync.Mutex
	file     *os.File
	enabled  bool
	counters = make(map[string]int)
)

// DefaultPath returns ~/.config/airgrid/debug.log.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "airgrid", "debug.log")
}

// Enable starts logging to the given path ("" = DefaultPath).
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	file = f
	enabled = true
	writeLine("debug", "=== logging started ===")
	return nil
}

// Disable stops logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
	counters = make(map[string]int)
}

// Log writes one line tagged with a category.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	writeLine(category, fmt.Sprintf(format, args...))
}

// LogEvery writes only every n-th call per call site, for per-frame paths
// that would otherwise flood the log.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	key := category + format
	counters[key]++
	count := counters[key]
	if count%n != 0 {
		return
	}
	writeLine(category, fmt.Sprintf(format, args...)+fmt.Sprintf(" (count=%d)", count))
}

// writeLine assumes mu is held.
func writeLine(category, msg string) {
	if !enabled || file == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync() // flush immediately so lines survive a crash
}

// Package logging provides the process-wide debug/diagnostic logger for
// opengloss. It mirrors the teacher's debug package: a build-time flag plus
// a runtime environment override, writing to a configurable sink instead of
// hardcoding stderr so the query CLI and the build CLI can each choose where
// diagnostics land.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug is a build flag that can be overridden at link time:
//
//	go build -ldflags "-X github.com/standardbeagle/opengloss/internal/logging.EnableDebug=true"
var EnableDebug = "false"

var (
	mu     sync.Mutex
	output io.Writer
)

// SetOutput sets the writer debug output is sent to. Pass nil to disable it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether debug logging is currently active.
func Enabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("OPENGLOSS_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Printf writes a formatted debug line when debug logging is enabled and a
// sink has been configured. It is a no-op otherwise, so call sites do not
// need to guard every call with Enabled().
func Printf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format+"\n", args...)
}

// Component logs a debug line tagged with a component name, e.g.
// Component("builder", "ingested %d entries", n).
func Component(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format+"\n", append([]interface{}{component}, args...)...)
}

package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer forwards log output to t.Log so that it is shown only for failing tests.
type Writer struct {
	t    *testing.T
	done atomic.Bool
}

// NewWriter creates a Writer for t. Writes after t has finished panic, which points at goroutines that outlive
// their test.
func NewWriter(t *testing.T) io.Writer {
	w := &Writer{t: t, done: atomic.Bool{}}
	t.Cleanup(func() { w.done.Store(true) })
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log written after the test finished; stop background work in t.Cleanup")
	}
	if line := strings.TrimRight(string(p), "\n"); line != "" {
		w.t.Helper()
		w.t.Log(line)
	}
	return len(p), nil
}

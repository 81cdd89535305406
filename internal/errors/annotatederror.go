// Package errors extends the standard library errors with annotations.
//
// Annotated errors carry structured [slog.Attr] values and the source location where they were created so that
// the log line describing a failure points at the code that produced it.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type annotatedError struct {
	err    error
	msg    string
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// Wrap annotates err with msg and attrs. The call site of Wrap is recorded as the error source.
//
// Wrap returns nil when err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		err:    err,
		msg:    msg,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip callerSource and Wrap.
	}
}

// New creates an error annotated with the call site of New.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		err:    nil,
		msg:    msg,
		attrs:  attrs,
		source: callerSource(2), //nolint:mnd // skip callerSource and New.
	}
}

// NewSentinel creates an error without annotations meant to be declared as a package level variable and compared
// with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// DecoratePanic converts a value returned by recover into an error pointing at the line that panicked.
//
// It returns nil if recovered is nil.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	e := &annotatedError{
		err:    nil,
		msg:    fmt.Sprintf("panic: %v", recovered),
		attrs:  nil,
		source: panicSource(),
	}
	if err, ok := recovered.(error); ok {
		e.err = err
		e.msg = "panic"
	}
	return e
}

// SlogError returns an attribute describing err including the annotations from the whole error chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{} //nolint:exhaustruct // empty attributes are ignored by slog handlers.
	}
	var (
		annotations []any
		source      string
	)
	walkChain(err, func(e *annotatedError) {
		for _, attr := range e.attrs {
			annotations = append(annotations, attr)
		}
		// The innermost annotation is closest to the root cause.
		if e.source != "" {
			source = e.source
		}
	})
	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walkChain calls fn for every annotated error reachable from err, outermost first.
func walkChain(err error, fn func(e *annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // unwrapping one level at a time.
		fn(ae)
	}
	switch x := err.(type) { //nolint:errorlint // unwrapping one level at a time.
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			walkChain(inner, fn)
		}
	case interface{ Unwrap() error }:
		walkChain(x.Unwrap(), fn)
	}
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// panicSource finds the frame that called panic by skipping past runtime.gopanic.
func panicSource() string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	panicked := false
	for {
		frame, more := frames.Next()
		if panicked && !strings.HasPrefix(frame.Function, "runtime.") {
			return filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			panicked = true
		}
		if !more {
			return ""
		}
	}
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}

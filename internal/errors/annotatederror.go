// Package errors extends the standard error handling with annotated errors
// that carry slog attributes and the source location of the wrap site, so
// log lines point at the code that added the context instead of the logger.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// sentinel is a comparable error value for package-level sentinels. Two
// sentinels with the same message are still distinct errors.
type sentinel struct {
	msg string
}

func (e *sentinel) Error() string {
	return e.msg
}

// NewSentinel creates an error value intended for errors.Is comparisons.
func NewSentinel(msg string) error {
	return &sentinel{msg: msg}
}

// New mirrors the standard library errors.New.
func New(msg string) error {
	return errors.New(msg) //nolint:err113 // passthrough to the standard library.
}

// annotatedError wraps a cause with a message, slog attributes, and the
// source location of the wrap call.
type annotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// Wrap annotates err with a message and optional slog attributes. The
// caller's file and line are captured for SlogError.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:    msg,
		cause:  err,
		attrs:  attrs,
		source: caller(2), //nolint:mnd // skip caller and Wrap itself.
	}
}

// DecoratePanic converts a recovered panic value into an error whose source
// points at the panic site.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	return &annotatedError{
		msg:    fmt.Sprintf("panic: %v", recovered),
		source: panicSource(),
	}
}

// Unwrap mirrors the standard library errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Is mirrors the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join mirrors the standard library errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// SlogError renders an error as a structured attribute group with the
// message, the wrap-site source, and all annotations found in the chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}

	attrs := []slog.Attr{slog.String("message", err.Error())}
	if source := firstSource(err); source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if annotations := collectAnnotations(err); len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}

	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// firstSource returns the source of the outermost annotated error in the
// chain, which is where the error was last given context.
func firstSource(err error) string {
	source := ""
	walk(err, func(e *annotatedError) {
		if source == "" {
			source = e.source
		}
	})
	return source
}

// collectAnnotations gathers the slog attributes of every annotated error
// in the chain, outermost first.
func collectAnnotations(err error) []slog.Attr {
	var annotations []slog.Attr
	walk(err, func(e *annotatedError) {
		annotations = append(annotations, e.attrs...)
	})
	return annotations
}

// walk visits every annotated error reachable through Unwrap, including the
// branches of joined errors.
func walk(err error, visit func(*annotatedError)) {
	for err != nil {
		if annotated, ok := err.(*annotatedError); ok {
			visit(annotated)
			err = annotated.cause
			continue
		}
		switch unwrapper := err.(type) {
		case interface{ Unwrap() error }:
			err = unwrapper.Unwrap()
		case interface{ Unwrap() []error }:
			for _, joined := range unwrapper.Unwrap() {
				walk(joined, visit)
			}
			return
		default:
			return
		}
	}
}

// caller formats the file and line of the stack frame skip levels up.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// panicSource walks the current stack past runtime.gopanic to the frame
// that actually panicked.
func panicSource() string {
	pcs := make([]uintptr, 32) //nolint:mnd // plenty for reaching the panic site.
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	seenPanic := false
	for {
		frame, more := frames.Next()
		switch {
		case strings.HasPrefix(frame.Function, "runtime.gopanic"):
			seenPanic = true
		case seenPanic && !strings.HasPrefix(frame.Function, "runtime."):
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		if !more {
			return ""
		}
	}
}

package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// caller returns the file base name and line of the calling site, two frames up.
func caller() (string, int) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}

// New creates an error annotated with the file and line of the caller.
func New(format string, a ...interface{}) error {
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s", file, line, fmt.Sprintf(format, a...))
}

// Wrapf adds context, including the caller's file and line, to an existing
// error. Returns nil if err is nil, so it can wrap call results directly.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	file, line := caller()
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), err)
}

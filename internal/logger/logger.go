// Package logger provides leveled console logging for commands and the install pipeline.
package logger

import (
	"fmt"
	"io"
	"sync"
)

// Logger is safe for concurrent use; download workers log through the same instance.
// A nil *Logger discards everything.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	quiet bool
	debug bool
}

func New(out io.Writer, err io.Writer, quiet bool, debug bool) *Logger {
	return &Logger{
		out:   out,
		err:   err,
		quiet: quiet,
		debug: debug,
	}
}

func (logger *Logger) Log(message string, forceShow bool) {
	if logger == nil {
		return
	}
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	logger.write(logger.out, message+"\n")
}

func (logger *Logger) Logf(format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Log(fmt.Sprintf(format, args...), false)
}

func (logger *Logger) Debug(message string) {
	if logger == nil || !logger.debug {
		return
	}
	logger.write(logger.out, message+"\n")
}

func (logger *Logger) Debugf(format string, args ...any) {
	if logger == nil || !logger.debug {
		return
	}
	logger.write(logger.out, fmt.Sprintf(format, args...)+"\n")
}

func (logger *Logger) Error(message string) {
	if logger == nil {
		return
	}
	logger.write(logger.err, message+"\n")
}

func (logger *Logger) Errorf(format string, args ...any) {
	if logger == nil {
		return
	}
	logger.write(logger.err, fmt.Sprintf(format, args...))
}

func (logger *Logger) DebugEnabled() bool {
	return logger != nil && logger.debug
}

func (logger *Logger) write(writer io.Writer, text string) {
	if writer == nil {
		return
	}
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if _, err := io.WriteString(writer, text); err != nil {
		return
	}
}

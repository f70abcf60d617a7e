// Package logging implements the proxy's timestamped, level-tagged,
// rate-limited logging. It generalizes Ealireza-SuperProxy's plain
// log.Printf calls into the three-level (INFO/LOG/ERROR) scheme with a
// lock-free per-second rate limiter, following the throttling trick used
// by the original iface-proxy implementation's log_throttled function.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// LogsPerSec bounds the number of throttled lines emitted in any given
// wall-clock second.
const LogsPerSec = 50

var (
	infoColor = color.New(color.FgGreen).SprintFunc()
	logColor  = color.New(color.FgCyan).SprintFunc()
	errColor  = color.New(color.FgRed).SprintFunc()
)

// Level tags an emitted line.
type Level int

const (
	LevelInfo Level = iota
	LevelLog
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelLog:
		return "LOG"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

func (l Level) colorize(s string) string {
	switch l {
	case LevelInfo:
		return infoColor(s)
	case LevelError:
		return errColor(s)
	default:
		return logColor(s)
	}
}

// Logger is a throttled logger. Each Logger owns one rate window, shared
// by every caller that logs through it. The zero value is not usable;
// construct with New.
type Logger struct {
	out io.Writer
	err io.Writer

	windowSecond  int64 // unix second currently owning the window
	countInWindow int64
	suppressed    int64
}

// New returns a Logger writing INFO/LOG to out and ERROR to errOut.
func New(out, errOut io.Writer) *Logger {
	return &Logger{out: out, err: errOut}
}

// Default writes INFO/LOG to stdout and ERROR to stderr.
func Default() *Logger {
	return New(os.Stdout, os.Stderr)
}

func (lg *Logger) writerFor(lvl Level) io.Writer {
	if lvl == LevelError {
		return lg.err
	}
	return lg.out
}

func timestampPrefix() string {
	now := time.Now()
	return fmt.Sprintf("[%s.%03d]", now.Format("2006-01-02 15:04:05"), now.Nanosecond()/1e6)
}

func (lg *Logger) emit(lvl Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s %s %s\n", timestampPrefix(), lvl.colorize(lvl.String()), msg)
	fmt.Fprint(lg.writerFor(lvl), line)
}

// Info logs an unthrottled INFO line. Used for bootstrap messages where
// losing a line to throttling would hide startup problems.
func (lg *Logger) Info(format string, args ...any) {
	lg.emit(LevelInfo, format, args...)
}

// Error logs an unthrottled ERROR line. Used for fatal/startup errors.
func (lg *Logger) Error(format string, args ...any) {
	lg.emit(LevelError, format, args...)
}

// Throttled logs an INFO line subject to the per-second rate limit. This
// is the hot-path logging call made from every accepted connection.
func (lg *Logger) Throttled(format string, args ...any) {
	lg.logThrottled(LevelInfo, format, args...)
}

// ThrottledError logs an ERROR line subject to the per-second rate limit.
func (lg *Logger) ThrottledError(format string, args ...any) {
	lg.logThrottled(LevelError, format, args...)
}

// logThrottled implements the one-winner compare-and-set window roll
// described in spec.md §4.3. Exactly one caller per wall-clock second
// wins the CAS and is responsible for rolling the window and, if any
// lines were suppressed in the prior window, emitting the "suppressed N"
// notice.
func (lg *Logger) logThrottled(lvl Level, format string, args ...any) {
	now := time.Now().Unix()
	window := atomic.LoadInt64(&lg.windowSecond)
	if now != window {
		if atomic.CompareAndSwapInt64(&lg.windowSecond, window, now) {
			suppressed := atomic.SwapInt64(&lg.suppressed, 0)
			if suppressed > 0 {
				lg.emit(LevelLog, "suppressed %d messages in last 1s", suppressed)
			}
			atomic.StoreInt64(&lg.countInWindow, 0)
		}
	}

	count := atomic.AddInt64(&lg.countInWindow, 1) - 1
	if count < LogsPerSec {
		lg.emit(lvl, format, args...)
	} else {
		atomic.AddInt64(&lg.suppressed, 1)
	}
}

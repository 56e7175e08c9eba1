// ABOUTME: Process-wide diagnostic log handler
// ABOUTME: Installed at most once, reset explicitly, defaults to log.Printf
package rtclient

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
)

// Level is the severity of a diagnostic message
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// LogHandler receives diagnostics from the client layer and audio server
type LogHandler func(level Level, msg string)

var (
	logHandler   atomic.Pointer[LogHandler]
	logInstalled atomic.Bool
)

// InstallLogHandler routes diagnostics to h. Only one handler may be
// installed; a second call returns ErrLogHandlerInstalled until
// ResetLogHandler runs.
func InstallLogHandler(h LogHandler) error {
	if h == nil {
		return errors.New("rtclient: nil log handler")
	}
	if !logInstalled.CompareAndSwap(false, true) {
		return ErrLogHandlerInstalled
	}
	logHandler.Store(&h)
	return nil
}

// ResetLogHandler restores the default handler
func ResetLogHandler() {
	logHandler.Store(nil)
	logInstalled.Store(false)
}

// Errorf reports an error diagnostic. It formats and may allocate, so it
// must not be called from a process callback.
func Errorf(format string, args ...interface{}) {
	emit(LevelError, fmt.Sprintf(format, args...))
}

// Infof reports an informational diagnostic. Same restrictions as Errorf.
func Infof(format string, args ...interface{}) {
	emit(LevelInfo, fmt.Sprintf(format, args...))
}

func emit(level Level, msg string) {
	if h := logHandler.Load(); h != nil {
		(*h)(level, msg)
		return
	}
	log.Printf("[%s] %s", level, msg)
}

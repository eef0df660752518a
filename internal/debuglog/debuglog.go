package debuglog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"go2tv.app/wlshot/internal/env"
)

var (
	enabledOnce sync.Once
	enabledFlag atomic.Bool

	outputOnce sync.Once
	output     io.Writer = os.Stderr

	loggersMu sync.Mutex
	loggers   = map[string]*log.Logger{}
)

func Enabled() bool {
	enabledOnce.Do(func() {
		if env.Bool("WLSHOT_DEBUG", false) {
			enabledFlag.Store(true)
		}
	})
	return enabledFlag.Load()
}

// SetEnabled overrides the WLSHOT_DEBUG environment switch.
func SetEnabled(v bool) {
	enabledOnce.Do(func() {})
	enabledFlag.Store(v)
}

func writer() io.Writer {
	outputOnce.Do(func() {
		p := env.String("WLSHOT_DEBUG_FILE", "")
		if p == "" {
			return
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "wlshot debug log open failed: %v\n", err)
			return
		}
		output = f
	})
	return output
}

func logger(component string) *log.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	l, ok := loggers[component]
	if !ok {
		l = log.New(writer(), "wlshot/"+component+" ", log.LstdFlags|log.Lmicroseconds)
		loggers[component] = l
	}
	return l
}

// Printf logs a key=value style message for component when debugging is on.
func Printf(component, format string, args ...any) {
	if !Enabled() {
		return
	}
	logger(component).Printf(format, args...)
}

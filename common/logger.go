package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger = newLogger(os.Stderr)

	// logInterceptor lets the interactive UI capture log lines while it owns the terminal.
	// When set and returns true, the line is considered handled and is not written.
	logInterceptor func(message string) bool
	logMu          sync.RWMutex
)

func newLogger(out io.Writer) *logrus.Logger {
	result := logrus.New()
	result.SetOutput(out)
	result.SetLevel(logrus.InfoLevel)
	result.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		DisableQuote:           true,
	})
	return result
}

func syncLogLevel() {
	switch {
	case TraceFlag():
		logger.SetLevel(logrus.TraceLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "02.150405.000",
			DisableQuote:    true,
		})
	case DebugFlag():
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetLogInterceptor sets a function that intercepts log messages.
// Return false from the interceptor to allow normal logging.
func SetLogInterceptor(interceptor func(message string) bool) {
	logMu.Lock()
	logInterceptor = interceptor
	logMu.Unlock()
}

// ClearLogInterceptor removes the current log interceptor
func ClearLogInterceptor() {
	logMu.Lock()
	logInterceptor = nil
	logMu.Unlock()
}

func interceptLog(message string) bool {
	logMu.RLock()
	interceptor := logInterceptor
	logMu.RUnlock()

	if interceptor != nil {
		return interceptor(message)
	}
	return false
}

// RedirectLogs sends all further log output to the given file (appending).
// Closing the returned closer restores stderr.
func RedirectLogs(filename string) (io.Closer, error) {
	handle, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", filename, err)
	}
	logger.SetOutput(handle)
	return closerFunc(func() error {
		logger.SetOutput(os.Stderr)
		return handle.Close()
	}), nil
}

type closerFunc func() error

func (it closerFunc) Close() error {
	return it()
}

func AcceptableOutput(message string) bool {
	for _, fragment := range LogHides {
		if strings.Contains(message, fragment) {
			return false
		}
	}
	return true
}

func printout(level logrus.Level, message string) {
	if !AcceptableOutput(message) {
		return
	}
	if !logger.IsLevelEnabled(level) {
		return
	}
	if interceptLog(message) {
		return
	}
	logger.Log(level, message)
}

func Fatal(context string, err error) {
	if err != nil {
		printout(logrus.ErrorLevel, fmt.Sprintf("Fatal [%s]: %v", context, err))
	}
}

func Error(context string, err error) {
	if err != nil {
		printout(logrus.ErrorLevel, fmt.Sprintf("Error [%s]: %v", context, err))
	}
}

func Uncritical(context string, err error) {
	if err != nil {
		printout(logrus.WarnLevel, fmt.Sprintf("Warning [%s; not critical]: %v", context, err))
	}
}

func Log(format string, details ...interface{}) {
	if !Silent() {
		printout(logrus.InfoLevel, fmt.Sprintf(format, details...))
	}
}

func Debug(format string, details ...interface{}) error {
	printout(logrus.DebugLevel, fmt.Sprintf("[D] "+format, details...))
	return nil
}

func Trace(format string, details ...interface{}) error {
	printout(logrus.TraceLevel, fmt.Sprintf("[T] "+format, details...))
	return nil
}

func Stdout(format string, details ...interface{}) {
	message := format
	if len(details) > 0 {
		message = fmt.Sprintf(format, details...)
	}
	if AcceptableOutput(message) {
		fmt.Fprint(os.Stdout, message)
		os.Stdout.Sync()
	}
}

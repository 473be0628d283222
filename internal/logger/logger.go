package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

var (
	debugMode   atomic.Bool
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
)

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects every level to w. Stdout stays free for the MCP stdio
// stream by default.
func SetOutput(w io.Writer) {
	debugLogger = log.New(w, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger = log.New(w, "[INFO] ", log.Ldate|log.Ltime)
	warnLogger = log.New(w, "[WARN] ", log.Ldate|log.Ltime)
	errorLogger = log.New(w, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
}

func SetDebugMode(enabled bool) {
	debugMode.Store(enabled)
	if enabled {
		Debug("Debug mode enabled")
	}
}

func IsDebugMode() bool {
	return debugMode.Load()
}

func Debug(format string, args ...interface{}) {
	if debugMode.Load() {
		_ = debugLogger.Output(2, fmt.Sprintf(format, args...))
	}
}

func Info(format string, args ...interface{}) {
	infoLogger.Printf(format, args...)
}

func Warn(format string, args ...interface{}) {
	warnLogger.Printf(format, args...)
}

func Error(format string, args ...interface{}) {
	_ = errorLogger.Output(2, fmt.Sprintf(format, args...))
}

// LogRequest records an incoming HTTP request in debug mode.
func LogRequest(method, path, remoteAddr string) {
	Debug("HTTP %s %s from %s", method, path, remoteAddr)
}

// LogResponse records the outcome of an HTTP request. Server errors are always
// logged; everything else only in debug mode.
func LogResponse(method, path string, statusCode int, duration time.Duration) {
	if statusCode >= 500 {
		infoLogger.Printf("HTTP %s %s -> %d (%s)", method, path, statusCode, duration)
		return
	}
	Debug("HTTP %s %s -> %d (%s)", method, path, statusCode, duration)
}

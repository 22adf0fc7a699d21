package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Info("Failed get current working directory")
		log.Fatal(err)
	}
	env := os.Getenv("ENV")
	// Prefer stdout for non-local environments (better with systemd/docker).
	// Allow overriding via LOG_TO_FILE=true to force file logging.
	logger.Out = os.Stdout
	if os.Getenv("LOG_TO_FILE") == "true" {
		logger.Out = openLogFile(cwd, env)
	}

	Configure(os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
}

func openLogFile(cwd, env string) io.Writer {
	logsDir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		log.Warnf("Failed to create logs directory %s: %v, falling back to stdout", logsDir, err)
		return os.Stdout
	}
	filePath := filepath.Join(logsDir, fmt.Sprintf("%s%s.log", time.Now().Format("2006-01-02"), env))
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Warnf("Failed to open log file %s: %v, falling back to stdout", filePath, err)
		return os.Stdout
	}
	return f
}

// Configure switches formatter and level. Unknown values keep JSON at debug level.
func Configure(format, level string) {
	if strings.EqualFold(format, "text") {
		logger.Formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		}
	} else {
		logger.Formatter = &log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer) {
	logger.Out = w
}

func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	functionObject := runtime.FuncForPC(function)
	entry := logger.WithFields(log.Fields{
		"requestId": time.Now().UnixNano() / int64(time.Millisecond),
		"function":  functionObject.Name(),
		"file":      file,
		"line":      line,
	})

	return entry
}

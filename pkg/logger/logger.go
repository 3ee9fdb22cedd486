package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps the logrus logger used across the portal
type Logger struct {
	*logrus.Logger
	mu sync.RWMutex
}

// LogLevel represents log levels
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// LogFormat represents log output formats
type LogFormat string

const (
	JSONFormat LogFormat = "json"
	TextFormat LogFormat = "text"
)

// Config represents logger configuration
type Config struct {
	Level  LogLevel
	Format LogFormat
	Output string // file path or "stdout"
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the global logger from LOG_* environment variables
func Init() {
	once.Do(func() {
		instance = NewLogger(configFromEnv())
	})
}

// NewLogger creates a new logger instance
func NewLogger(config Config) *Logger {
	l := &Logger{Logger: logrus.New()}
	l.SetLevel(toLogrusLevel(config.Level))

	if config.Format == TextFormat {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				return fmt.Sprintf("%s()", f.Function), fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "caller",
			},
		})
	}

	l.SetOutput(openOutput(config.Output))
	l.SetReportCaller(config.Level == DebugLevel)
	return l
}

func openOutput(output string) io.Writer {
	if output == "" || output == "stdout" {
		return os.Stdout
	}
	if output == "stderr" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		log.Printf("Failed to create log directory: %v", err)
		return os.Stdout
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return os.Stdout
	}
	if os.Getenv("APP_ENV") == "development" {
		return io.MultiWriter(file, os.Stdout)
	}
	return file
}

func configFromEnv() Config {
	config := Config{Level: InfoLevel, Format: JSONFormat, Output: "stdout"}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = LogLevel(strings.ToLower(level))
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = LogFormat(strings.ToLower(format))
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}
	return config
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// base returns the configured logger or the logrus standard logger when Init
// has not run (tests, tools).
func base() *logrus.Logger {
	if instance != nil {
		return instance.Logger
	}
	return logrus.StandardLogger()
}

func Debug(args ...interface{})                 { base().Debug(args...) }
func Debugf(format string, args ...interface{}) { base().Debugf(format, args...) }
func Info(args ...interface{})                  { base().Info(args...) }
func Infof(format string, args ...interface{})  { base().Infof(format, args...) }
func Warn(args ...interface{})                  { base().Warn(args...) }
func Warnf(format string, args ...interface{})  { base().Warnf(format, args...) }
func Error(args ...interface{})                 { base().Error(args...) }
func Errorf(format string, args ...interface{}) { base().Errorf(format, args...) }
func Fatal(args ...interface{})                 { base().Fatal(args...) }
func Fatalf(format string, args ...interface{}) { base().Fatalf(format, args...) }

// WithField creates an entry with a single field
func WithField(key string, value interface{}) *logrus.Entry {
	return base().WithField(key, value)
}

// WithFields creates an entry with multiple fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return base().WithFields(fields)
}

// WithError creates an entry with an error field
func WithError(err error) *logrus.Entry {
	return base().WithError(err)
}

func merge(fields logrus.Fields, metadata map[string]interface{}) logrus.Fields {
	for k, v := range metadata {
		fields[k] = v
	}
	return fields
}

// LogRequest logs HTTP request information
func LogRequest(method, path, ip, userAgent string, duration time.Duration, statusCode int) {
	WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"ip":          ip,
		"user_agent":  userAgent,
		"duration_ms": duration.Milliseconds(),
		"status_code": statusCode,
		"type":        "request",
	}).Info("HTTP Request")
}

// LogUserAction logs user actions
func LogUserAction(username, action string, metadata map[string]interface{}) {
	WithFields(merge(logrus.Fields{
		"username": username,
		"action":   action,
		"type":     "user_action",
	}, metadata)).Info("User Action")
}

// LogAdminAction logs admin actions
func LogAdminAction(admin, action, target string, metadata map[string]interface{}) {
	WithFields(merge(logrus.Fields{
		"admin":  admin,
		"action": action,
		"target": target,
		"type":   "admin_action",
	}, metadata)).Warn("Admin Action")
}

// LogChatEvent logs support and main chat events
func LogChatEvent(event, thread, from string, metadata map[string]interface{}) {
	WithFields(merge(logrus.Fields{
		"event":  event,
		"thread": thread,
		"from":   from,
		"type":   "chat_event",
	}, metadata)).Info("Chat Event")
}

// LogLedgerEvent logs balance mutations and request transitions
func LogLedgerEvent(kind string, requestID int64, username, status string, metadata map[string]interface{}) {
	WithFields(merge(logrus.Fields{
		"kind":       kind,
		"request_id": requestID,
		"username":   username,
		"status":     status,
		"type":       "ledger_event",
	}, metadata)).Info("Ledger Event")
}

// LogSecurityEvent logs security-related events
func LogSecurityEvent(event, username, ip string, metadata map[string]interface{}) {
	WithFields(merge(logrus.Fields{
		"event":    event,
		"username": username,
		"ip":       ip,
		"type":     "security_event",
	}, metadata)).Warn("Security Event")
}

// LogError logs detailed error information
func LogError(err error, context string, metadata map[string]interface{}) {
	fields := merge(logrus.Fields{
		"error":   err.Error(),
		"context": context,
		"type":    "error_detail",
	}, metadata)

	if os.Getenv("APP_ENV") == "development" {
		fields["stack_trace"] = stackTrace()
	}
	WithFields(fields).Error("Application Error")
}

func stackTrace() string {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}

// SetLevel changes the logger level at runtime
func SetLevel(level LogLevel) {
	if instance == nil {
		logrus.SetLevel(toLogrusLevel(level))
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.SetLevel(toLogrusLevel(level))
}

// Close closes the logger output when it is a file
func Close() error {
	if instance != nil {
		if file, ok := instance.Out.(*os.File); ok && file != os.Stdout && file != os.Stderr {
			return file.Close()
		}
	}
	return nil
}

// Package logging configures the shared logrus instance for the qiagen-upload
// CLI tools. Every run writes to stdout and to a timestamped log file under
// the configured output directory, and every formatted record passes through
// a masking step that strips credential material before it can reach disk.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	setupOnce sync.Once
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// secretPatterns match credential material that must never appear in log
// output: Basic credentials, bearer/raw Authorization values, and the OAuth
// device-flow parameters that double as secrets.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(Basic )[A-Za-z0-9+/=]+`),
	regexp.MustCompile(`(Authorization: )\S+`),
	regexp.MustCompile(`(device_code=)[^&\s]+`),
	regexp.MustCompile(`(code_verifier=)[^&\s]+`),
	regexp.MustCompile(`(code_challenge=)[^&\s]+`),
	regexp.MustCompile(`("code_challenge": ?")[^"]+`),
	regexp.MustCompile(`("client_secret": ?")[^"]+`),
	regexp.MustCompile(`(client_secret=)[^&\s]+`),
	regexp.MustCompile(`("access_token": ?")[^"]+`),
}

// MaskSecrets replaces credential material in a message with a fixed marker.
func MaskSecrets(message string) string {
	for _, pattern := range secretPatterns {
		message = pattern.ReplaceAllString(message, "${1}<MASKED>")
	}
	return message
}

// LogFormatter defines a custom log format for logrus.
// This formatter adds timestamp, run ID, level, and source location to each entry.
// Format: [2026-08-24 15:30:00] [a1b2c3d4] [info ] [device.go:84] requesting device code
type LogFormatter struct{}

// Format renders a single log entry with custom formatting and secret masking.
func (m *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	var buffer *bytes.Buffer
	if entry.Buffer != nil {
		buffer = entry.Buffer
	} else {
		buffer = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := MaskSecrets(strings.TrimRight(entry.Message, "\r\n"))

	runID := "--------"
	if id, ok := entry.Data["run_id"].(string); ok && id != "" {
		runID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	levelStr := fmt.Sprintf("%-5s", level)

	var formatted string
	if entry.Caller != nil {
		formatted = fmt.Sprintf("[%s] [%s] [%s] [%s:%d] %s\n", timestamp, runID, levelStr, filepath.Base(entry.Caller.File), entry.Caller.Line, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] [%s] %s\n", timestamp, runID, levelStr, message)
	}
	buffer.WriteString(formatted)

	return buffer.Bytes(), nil
}

// SetupBaseLogger configures the shared logrus instance.
// It is safe to call multiple times; initialization happens only once.
func SetupBaseLogger() {
	setupOnce.Do(func() {
		log.SetOutput(os.Stdout)
		log.SetReportCaller(true)
		log.SetFormatter(&LogFormatter{})
		log.SetLevel(log.DebugLevel)
		log.RegisterExitHandler(closeLogOutput)
	})
}

// NewRunID returns a short identifier carried in the run_id log field so the
// lines of one invocation can be grouped when logs are aggregated.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// ConfigureLogOutput directs the shared logger to stdout plus a per-run log
// file named <command>_<timestamp>.log inside logDir. It returns the log file
// path so callers can report it to the operator.
func ConfigureLogOutput(logDir, command, timestamp string) (string, error) {
	SetupBaseLogger()

	writerMu.Lock()
	defer writerMu.Unlock()

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("logging: failed to create log directory: %w", err)
	}

	if logWriter != nil {
		_ = logWriter.Close()
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%s_%s.log", command, timestamp))
	logWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10,
		MaxBackups: 0,
		MaxAge:     0,
		Compress:   false,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logWriter))
	return logPath, nil
}

func closeLogOutput() {
	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}

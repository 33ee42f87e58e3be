package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	logFile *os.File
	runID   string
	debug   bool

	unitColor  = color.New(color.FgCyan, color.Bold)
	stageColor = color.New(color.FgYellow)
	warnColor  = color.New(color.FgMagenta, color.Bold)
)

// Init routes the standard logger to stdout and, when logPath is set, to an
// append-only log file as well.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// SetRunID tags every subsequent line with id.
func SetRunID(id string) {
	mu.Lock()
	defer mu.Unlock()
	runID = strings.TrimSpace(id)
	if runID == "" {
		log.SetPrefix("")
		return
	}
	log.SetPrefix("[" + runID + "] ")
}

// SetDebug toggles LogDebug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
}

func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

func LogDebug(format string, args ...any) {
	if !DebugEnabled() {
		return
	}
	log.Println("[DEBUG] " + fmt.Sprintf(format, args...))
}

func LogWarn(format string, args ...any) {
	log.Println(warnColor.Sprint("[WARN]") + " " + fmt.Sprintf(format, args...))
}

// LogUnit logs a line scoped to one benchmark and pipeline stage.
func LogUnit(unit, stage, format string, args ...any) {
	log.Println(buildUnitMessage(unit, stage, fmt.Sprintf(format, args...)))
}

func buildUnitMessage(unit, stage, msg string) string {
	unitValue := strings.TrimSpace(unit)
	if unitValue == "" {
		unitValue = "unknown"
	}
	parts := []string{unitColor.Sprintf("[%s]", unitValue)}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stageColor.Sprint(strings.ToLower(stage)+":"))
	}
	if msg = strings.TrimSpace(msg); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, " ")
}

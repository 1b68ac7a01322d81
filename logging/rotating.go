// Package logging sets up slog for the medicines frontend: console output plus a
// weekly rotating JSON log file with size limits and retention cleanup.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// LogFilePrefix starts the name of every log file written by RotatingLogger
	LogFilePrefix = "medicines-web-"

	defaultMaxFileSize = 100 * 1024 * 1024
)

var numberedFilePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(LogFilePrefix) + `\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger manages rotating log files with weekly retention
type RotatingLogger struct {
	logDir      string
	currentFile *os.File
	currentWeek string
	retention   time.Duration
	maxFileSize int64
	currentSize atomic.Int64
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
	cleanupOnce sync.Once
}

// NewRotatingLogger creates a new rotating logger instance
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a new rotating logger with custom size limit
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Open creates the log directory, opens the file of the current week and
// starts the daily retention cleanup.
func (rl *RotatingLogger) Open() error {
	if err := os.MkdirAll(rl.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", rl.logDir, err)
	}

	rl.mu.Lock()
	err := rl.doRotate(getWeekKey(time.Now()))
	rl.mu.Unlock()
	if err != nil {
		return err
	}

	rl.cleanupOnce.Do(func() {
		go rl.cleanupLoop()
	})
	return nil
}

func (rl *RotatingLogger) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	defer close(rl.cleanupDone)

	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-ticker.C:
			if err := rl.cleanupOldLogs(); err != nil {
				slog.Warn("Failed to cleanup old logs", "error", err)
			}
		}
	}
}

// doRotate performs actual rotation (caller must hold the lock)
func (rl *RotatingLogger) doRotate(targetWeek string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
		rl.currentFile = nil
	}

	isSizeRotation := rl.maxFileSize > 0 && rl.currentSize.Load() >= rl.maxFileSize
	fileName, shouldResetSize := rl.pickLogFile(targetWeek, isSizeRotation)

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek

	if shouldResetSize {
		rl.currentSize.Store(0)
	} else if info, err := os.Stat(logPath); err == nil {
		rl.currentSize.Store(info.Size())
	}

	return nil
}

// pickLogFile returns the file to write for the week and whether it is a fresh numbered file
func (rl *RotatingLogger) pickLogFile(targetWeek string, isSizeRotation bool) (string, bool) {
	baseFileName := LogFilePrefix + targetWeek + ".log"
	highestNum, lastFilePath, lastSize := rl.findHighestNumberedFile(targetWeek)

	// a size rotation always starts a new numbered file
	if !isSizeRotation {
		if lastFilePath != "" {
			if lastSize < rl.maxFileSize {
				return filepath.Base(lastFilePath), false
			}
		} else {
			info, err := os.Stat(filepath.Join(rl.logDir, baseFileName))
			if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
				return baseFileName, false
			}
		}
	}

	return fmt.Sprintf("%s%s_%02d.log", LogFilePrefix, targetWeek, highestNum+1), true
}

// findHighestNumberedFile searches for numbered log files of a week
func (rl *RotatingLogger) findHighestNumberedFile(targetWeek string) (int, string, int64) {
	pattern := fmt.Sprintf("%s%s_??.log", LogFilePrefix, targetWeek)
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, pattern))

	highestNum := 0
	var lastPath string
	var lastSize int64

	for _, match := range matches {
		sub := numberedFilePattern.FindStringSubmatch(filepath.Base(match))
		if len(sub) < 2 {
			continue
		}
		num, _ := strconv.Atoi(sub[1])
		if num <= highestNum {
			continue
		}

		highestNum = num
		lastPath = match
		lastSize = 0
		if info, err := os.Stat(match); err == nil {
			lastSize = info.Size()
		}
	}

	return highestNum, lastPath, lastSize
}

// Write writes data to the current log file, rotating on week change or size limit
func (rl *RotatingLogger) Write(p []byte) (n int, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	currentWeek := getWeekKey(time.Now())
	needsRotation := rl.currentFile == nil || rl.currentWeek != currentWeek

	if rl.maxFileSize > 0 && !needsRotation {
		currentSize := rl.currentSize.Load()
		if currentSize+int64(len(p)) > rl.maxFileSize {
			needsRotation = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if needsRotation {
		if err = rl.doRotate(currentWeek); err != nil {
			return 0, err
		}
	}

	n, err = rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes log files older than the retention period
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	var deletedCount int

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), LogFilePrefix) || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, entry.Name())); err == nil {
				deletedCount++
			}
		}
	}

	if deletedCount > 0 {
		// console only, writing through slog here would recurse into Write
		fmt.Printf("Cleaned up %d old log files\n", deletedCount)
	}

	return nil
}

// Close stops the background cleanup and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	// the loop only runs when Open started it
	started := true
	rl.cleanupOnce.Do(func() { started = false })
	if started {
		select {
		case <-rl.cleanupDone:
		case <-time.After(5 * time.Second):
			fmt.Fprintln(os.Stderr, "background log cleanup did not stop in time")
		}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile != nil {
		err := rl.currentFile.Close()
		rl.currentFile = nil
		return err
	}
	return nil
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

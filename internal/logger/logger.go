// Package logger provides the scan log sink. The engine emits Log
// messages on the stream; front-ends route them here. Exactly two
// shapes exist in practice — discard and file-backed — so the sink is
// a closed type rather than an open interface.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pathstalk/pathstalk/internal/types"
)

// ScanLogger consumes (level, message) pairs. A nil file means the
// null variant: every record is discarded.
type ScanLogger struct {
	mu   sync.Mutex
	file *os.File
}

// Null returns a logger that discards everything.
func Null() *ScanLogger {
	return &ScanLogger{}
}

// File returns a logger appending to the file at path, creating it if
// needed.
func File(path string) (*ScanLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &ScanLogger{file: f}, nil
}

// Log writes one record. Safe for concurrent use.
func (l *ScanLogger) Log(level types.LogLevel, msg string) {
	if l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, msg)
}

// Close releases the underlying file, if any.
func (l *ScanLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

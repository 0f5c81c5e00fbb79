package logger

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/pathstalk/pathstalk/internal/types"
)

var lineRe = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[(INFO|WARN|ERROR|CRITICAL)\] .+$`)

func TestFileLoggerFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")
	l, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	l.Log(types.LevelInfo, "http://h/a/ -> 200")
	l.Log(types.LevelCritical, "Panic in thread: boom")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	for _, line := range lines {
		if !lineRe.MatchString(line) {
			t.Errorf("malformed log line: %q", line)
		}
	}
	if !strings.Contains(lines[0], "[INFO] http://h/a/ -> 200") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[CRITICAL] Panic in thread: boom") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")

	l1, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	l1.Log(types.LevelInfo, "first run")
	l1.Close()

	l2, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	l2.Log(types.LevelInfo, "second run")
	l2.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "first run") || !strings.Contains(string(data), "second run") {
		t.Errorf("log file missing records: %q", data)
	}
}

func TestNullLogger(t *testing.T) {
	l := Null()
	l.Log(types.LevelError, "discarded")
	if err := l.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.log")
	l, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Log(types.LevelInfo, "concurrent record")
			}
		}()
	}
	wg.Wait()
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 16*50 {
		t.Errorf("expected %d lines, got %d", 16*50, len(lines))
	}
	for _, line := range lines {
		if !lineRe.MatchString(line) {
			t.Fatalf("interleaved write produced malformed line: %q", line)
		}
	}
}

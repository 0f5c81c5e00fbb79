package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pathstalk/pathstalk/internal/types"
)

func tempWordlist(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildDefaults(t *testing.T) {
	eng, err := NewBuilder().
		URI("http://example.com/").
		Wordlist(tempWordlist(t)).
		MessageSender(types.NullSender{}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if eng.threads != DefaultThreads {
		t.Errorf("threads = %d, want %d", eng.threads, DefaultThreads)
	}
	if eng.recursion != DefaultRecursion {
		t.Errorf("recursion = %d, want %d", eng.recursion, DefaultRecursion)
	}
	if eng.timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", eng.timeout, DefaultTimeout)
	}
}

func TestBuildMissingTarget(t *testing.T) {
	_, err := NewBuilder().
		Wordlist(tempWordlist(t)).
		MessageSender(types.NullSender{}).
		Build()
	if !errors.Is(err, types.ErrTargetNotSpecified) {
		t.Errorf("expected ErrTargetNotSpecified, got %v", err)
	}
}

func TestBuildMissingWordlist(t *testing.T) {
	_, err := NewBuilder().
		URI("http://example.com/").
		MessageSender(types.NullSender{}).
		Build()
	if !errors.Is(err, types.ErrWordlistNotSpecified) {
		t.Errorf("expected ErrWordlistNotSpecified, got %v", err)
	}
}

func TestBuildMissingSender(t *testing.T) {
	_, err := NewBuilder().
		URI("http://example.com/").
		Wordlist(tempWordlist(t)).
		Build()
	if !errors.Is(err, types.ErrSenderNotSpecified) {
		t.Errorf("expected ErrSenderNotSpecified, got %v", err)
	}
}

func TestBuildInvalidURI(t *testing.T) {
	tests := []string{"://bad", "ftp://example.com/", "not a url", "/relative/only"}
	for _, raw := range tests {
		_, err := NewBuilder().
			URI(raw).
			Wordlist(tempWordlist(t)).
			MessageSender(types.NullSender{}).
			Build()
		var parseErr *types.URLParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("URI(%q): expected URLParseError, got %v", raw, err)
		}
	}
}

func TestBuildWordlistNotFound(t *testing.T) {
	_, err := NewBuilder().
		URI("http://example.com/").
		Wordlist(filepath.Join(t.TempDir(), "missing.txt")).
		MessageSender(types.NullSender{}).
		Build()
	var notFound *types.FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected FileNotFoundError, got %v", err)
	}
}

func TestBuildWordlistNotAFile(t *testing.T) {
	_, err := NewBuilder().
		URI("http://example.com/").
		Wordlist(t.TempDir()).
		MessageSender(types.NullSender{}).
		Build()
	var notAFile *types.NotAFileError
	if !errors.As(err, &notAFile) {
		t.Errorf("expected NotAFileError, got %v", err)
	}
}

func TestBuildZeroThreads(t *testing.T) {
	_, err := NewBuilder().
		Threads(0).
		URI("http://example.com/").
		Wordlist(tempWordlist(t)).
		MessageSender(types.NullSender{}).
		Build()
	if !errors.Is(err, types.ErrInvalidThreadCount) {
		t.Errorf("expected ErrInvalidThreadCount, got %v", err)
	}
}

func TestLatchedErrorNotMasked(t *testing.T) {
	// A latched URL parse failure must survive a later, valid
	// wordlist call.
	_, err := NewBuilder().
		URI("://bad").
		Wordlist(tempWordlist(t)).
		MessageSender(types.NullSender{}).
		Build()
	var parseErr *types.URLParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected latched URLParseError, got %v", err)
	}
}

func TestLatchedErrorFirstWins(t *testing.T) {
	b := NewBuilder().
		Wordlist(filepath.Join(t.TempDir(), "missing.txt")).
		URI("://also-bad")
	_, err := b.Build()
	var notFound *types.FileNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected first latched error (FileNotFoundError), got %v", err)
	}
}

func TestProxyURLEmptyIsUnset(t *testing.T) {
	eng, err := NewBuilder().
		URI("http://example.com/").
		Wordlist(tempWordlist(t)).
		ProxyURL("").
		MessageSender(types.NullSender{}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if eng.proxy != nil {
		t.Errorf("expected nil proxy, got %v", eng.proxy)
	}
}

func TestExplicitOptions(t *testing.T) {
	eng, err := NewBuilder().
		Threads(3).
		Recursive(2).
		Timeout(9 * time.Second).
		URI("http://example.com/dir").
		Wordlist(tempWordlist(t)).
		ProxyURL("http://127.0.0.1:8080").
		MessageSender(types.NullSender{}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if eng.threads != 3 || eng.recursion != 2 || eng.timeout != 9*time.Second {
		t.Errorf("options not applied: %+v", eng)
	}
	if eng.proxy == nil || eng.proxy.Host != "127.0.0.1:8080" {
		t.Errorf("proxy not applied: %v", eng.proxy)
	}
}

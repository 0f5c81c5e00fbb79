package engine

import (
	"net/url"
	"os"
	"time"
	"unicode/utf8"

	"github.com/pathstalk/pathstalk/internal/types"
)

// Defaults applied by Build when an option was never set.
const (
	DefaultThreads   = 50
	DefaultRecursion = 0
	DefaultTimeout   = 5 * time.Second
)

// Builder stages engine configuration. Setters validate eagerly; the
// first validation failure is latched and later setters become no-ops,
// so Build surfaces the error the caller made first.
type Builder struct {
	threads   int
	hasThread bool
	recursion int
	timeout   time.Duration
	wordlist  string
	uri       *url.URL
	proxy     *url.URL
	sender    types.Sender
	err       error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Threads sets the worker pool size. Values below 1 latch
// types.ErrInvalidThreadCount.
func (b *Builder) Threads(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = types.ErrInvalidThreadCount
		return b
	}
	b.threads = n
	b.hasThread = true
	return b
}

// Recursive sets the maximum scan depth beyond the base URL. Zero
// disables recursion.
func (b *Builder) Recursive(depth int) *Builder {
	if b.err != nil {
		return b
	}
	if depth < 0 {
		depth = 0
	}
	b.recursion = depth
	return b
}

// Timeout sets the global per-request timeout.
func (b *Builder) Timeout(d time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	b.timeout = d
	return b
}

// Wordlist sets the wordlist path. The path must exist, be a regular
// file, and be valid UTF-8.
func (b *Builder) Wordlist(path string) *Builder {
	if b.err != nil {
		return b
	}

	info, err := os.Stat(path)
	if err != nil {
		b.err = &types.FileNotFoundError{Path: path}
		return b
	}
	if !info.Mode().IsRegular() {
		b.err = &types.NotAFileError{Path: path}
		return b
	}
	if !utf8.ValidString(path) {
		b.err = &types.InvalidFilePathError{Path: path}
		return b
	}

	b.wordlist = path
	return b
}

// URI sets the base URL. It must be absolute with an http or https
// scheme and a host.
func (b *Builder) URI(raw string) *Builder {
	if b.err != nil {
		return b
	}

	u, err := parseTarget(raw)
	if err != nil {
		b.err = err
		return b
	}

	b.uri = u
	return b
}

// ProxyURL sets an outbound proxy. An empty string is treated as
// unset.
func (b *Builder) ProxyURL(raw string) *Builder {
	if b.err != nil || raw == "" {
		return b
	}

	u, err := url.Parse(raw)
	if err != nil {
		b.err = &types.URLParseError{Raw: raw, Err: err}
		return b
	}

	b.proxy = u
	return b
}

// MessageSender sets the channel endpoint for engine events.
func (b *Builder) MessageSender(s types.Sender) *Builder {
	if b.err != nil {
		return b
	}
	b.sender = s
	return b
}

// Build validates required fields and returns a ready-to-run Engine.
// A latched setter error takes precedence over missing fields.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.uri == nil {
		return nil, types.ErrTargetNotSpecified
	}
	if b.wordlist == "" {
		return nil, types.ErrWordlistNotSpecified
	}
	if b.sender == nil {
		return nil, types.ErrSenderNotSpecified
	}

	threads := DefaultThreads
	if b.hasThread {
		threads = b.threads
	}
	timeout := b.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Engine{
		threads:   threads,
		recursion: b.recursion,
		timeout:   timeout,
		wordlist:  b.wordlist,
		uri:       b.uri,
		proxy:     b.proxy,
		sender:    b.sender,
	}, nil
}

// parseTarget validates an absolute scan target.
func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &types.URLParseError{Raw: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &types.URLParseError{Raw: raw, Err: errNotAbsolute}
	}
	if u.Host == "" {
		return nil, &types.URLParseError{Raw: raw, Err: errNoHost}
	}
	return u, nil
}

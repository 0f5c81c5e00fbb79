// Package engine implements the concurrent directory probing pipeline:
// a staged builder, a worker pool that slices a wordlist across
// probing goroutines, and a recursion driver that walks a LIFO
// frontier of discovered directories. All observation happens through
// the message stream; the engine never consumes its own messages.
package engine

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/pathstalk/pathstalk/internal/fetcher"
	"github.com/pathstalk/pathstalk/internal/types"
	"github.com/pathstalk/pathstalk/internal/wordlist"
)

var (
	errNotAbsolute = errors.New("scheme must be http or https")
	errNoHost      = errors.New("missing host")
)

// Engine is a single-use scan. Construct it with Builder, consume it
// with Run.
type Engine struct {
	threads   int
	recursion int
	timeout   time.Duration
	wordlist  string
	uri       *url.URL
	proxy     *url.URL
	sender    types.Sender
}

// Run executes the scan. It loads the wordlist, creates the shared
// HTTP client, and drives the frontier until it is empty. When the
// frontier is drained, the last two messages on the stream are
// Finish(Current) then Finish(Total); a wordlist failure or a lost
// observer returns early without them. The stream is closed before Run
// returns. Only wordlist I/O failures surface as errors.
func (e *Engine) Run() error {
	defer e.sender.Close()

	words, err := wordlist.Load(e.wordlist)
	if err != nil {
		return err
	}

	client := fetcher.New(fetcher.Config{
		Timeout: e.timeout,
		Proxy:   e.proxy,
	})
	defer client.CloseIdleConnections()

	p := &pool{
		threads: e.threads,
		client:  client,
		sender:  e.sender,
	}

	wordCount := len(words)
	progressLen := wordCount
	baseDepth := segmentCount(e.uri.Path)

	frontier := NewFrontier()
	frontier.Push(e.uri.String())

	for {
		target, ok := frontier.Pop()
		if !ok {
			break
		}
		if targetDepth(target)-baseDepth > e.recursion {
			continue
		}

		// The total denominator is speculative and grows with
		// discoveries; the current stream always spans exactly one
		// wordlist pass.
		if err := e.sender.Send(types.SetTotalSize(progressLen)); err != nil {
			return nil
		}
		if err := e.sender.Send(types.SetCurrentSize(wordCount)); err != nil {
			return nil
		}

		found, err := p.execute(target, words)
		if err != nil {
			// Observer gone: workers have drained, return cleanly.
			return nil
		}

		progressLen += len(found) * wordCount
		for _, f := range found {
			frontier.Push(f)
		}
	}

	_ = e.sender.Send(types.FinishCurrent())
	_ = e.sender.Send(types.FinishTotal())
	return nil
}

// Target returns the validated base URL.
func (e *Engine) Target() *url.URL { return e.uri }

// Threads returns the worker pool size.
func (e *Engine) Threads() int { return e.threads }

// targetDepth counts path segments of a frontier URL. Frontier entries
// are formed from the validated base, so a parse failure cannot occur
// for admissible input; unparseable entries count as infinitely deep
// and are skipped.
func targetDepth(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return segmentCount(u.Path)
}

// segmentCount counts non-empty path segments.
func segmentCount(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pathstalk/pathstalk/internal/fetcher"
	"github.com/pathstalk/pathstalk/internal/types"
)

// pool fans a wordlist out over N probing goroutines for one frontier
// URL. The wordlist and client are shared read-only; each worker owns
// a contiguous slice and its own discovery list.
type pool struct {
	threads int
	client  *fetcher.Client
	sender  types.Sender
}

// workerPanicError carries a recovered panic value across the join.
type workerPanicError struct {
	value any
}

func (e *workerPanicError) Error() string {
	return fmt.Sprintf("%v", e.value)
}

// execute runs one pass: every word probed against base, discoveries
// returned in slice index order. The only error returned is
// types.ErrObserverGone; per-probe failures are reported on the stream
// and never abort the pass.
func (p *pool) execute(base string, words []string) ([]string, error) {
	sliceSize := len(words) / p.threads

	results := make([][]string, p.threads)
	errs := make([]error, p.threads)

	var wg sync.WaitGroup
	for i := 0; i < p.threads; i++ {
		lo := sliceSize * i
		hi := sliceSize * (i + 1)
		if i == p.threads-1 {
			hi = len(words)
		}

		wg.Add(1)
		go func(idx int, slice []string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[idx] = &workerPanicError{value: r}
				}
			}()
			results[idx], errs[idx] = p.probeSlice(base, slice)
		}(i, words[lo:hi])
	}
	wg.Wait()

	observerGone := false
	for _, err := range errs {
		var panicErr *workerPanicError
		switch {
		case err == nil:
		case errors.Is(err, types.ErrObserverGone):
			observerGone = true
		case errors.As(err, &panicErr):
			_ = p.sender.Send(types.Log(types.LevelCritical, fmt.Sprintf("Panic in thread: %v", panicErr.value)))
		default:
			_ = p.sender.Send(types.Log(types.LevelError, err.Error()))
		}
	}

	found := make([]string, 0)
	for _, r := range results {
		found = append(found, r...)
	}
	if observerGone {
		return found, types.ErrObserverGone
	}
	return found, nil
}

// probeSlice issues one GET per word. Every probe, whatever its
// outcome, advances both streams; the Advance pair is emitted last so
// discovery prints and logs precede it.
func (p *pool) probeSlice(base string, words []string) ([]string, error) {
	var found []string

	for _, word := range words {
		candidate := joinCandidate(base, word)

		resp, err := p.client.Get(context.Background(), candidate)
		switch {
		case err != nil:
			msg := types.PrintCurrent(fmt.Sprintf("Error while sending request to %s: %v", candidate, err))
			if sendErr := p.sender.Send(msg); sendErr != nil {
				return found, sendErr
			}
		case resp.StatusCode == 404:
			msg := types.SetCurrentMessage(fmt.Sprintf("GET %s -> %d", candidate, resp.StatusCode))
			if sendErr := p.sender.Send(msg); sendErr != nil {
				return found, sendErr
			}
		default:
			msg := types.PrintCurrent(fmt.Sprintf("GET %s -> %d", candidate, resp.StatusCode))
			if sendErr := p.sender.Send(msg); sendErr != nil {
				return found, sendErr
			}
			logMsg := types.Log(types.LevelInfo, fmt.Sprintf("%s -> %d", candidate, resp.StatusCode))
			if sendErr := p.sender.Send(logMsg); sendErr != nil {
				return found, sendErr
			}
			found = append(found, candidate)
		}

		if sendErr := p.sender.Send(types.AdvanceCurrent()); sendErr != nil {
			return found, sendErr
		}
		if sendErr := p.sender.Send(types.AdvanceTotal()); sendErr != nil {
			return found, sendErr
		}
	}

	return found, nil
}

// joinCandidate forms the directory-style probe URL for a word. The
// trailing slash is intentional: the scan probes for directories.
func joinCandidate(base, word string) string {
	if strings.HasSuffix(base, "/") {
		return base + word + "/"
	}
	return base + "/" + word + "/"
}

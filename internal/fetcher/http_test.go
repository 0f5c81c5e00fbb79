package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/pathstalk/pathstalk/internal/types"
)

func newTestClient(timeout time.Duration) *Client {
	return New(Config{Timeout: timeout})
}

func TestGetStatusPassthrough(t *testing.T) {
	statuses := []int{200, 301, 403, 404, 500}

	for _, status := range statuses {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := newTestClient(2 * time.Second)
		resp, err := c.Get(context.Background(), srv.URL+"/probe/")
		if err != nil {
			t.Fatalf("status %d: unexpected error: %v", status, err)
		}
		if resp.StatusCode != status {
			t.Errorf("got status %d, want %d", resp.StatusCode, status)
		}
		srv.Close()
	}
}

func TestGetDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved/" {
			http.Redirect(w, r, "/elsewhere/", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(2 * time.Second)
	resp, err := c.Get(context.Background(), srv.URL+"/moved/")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("got status %d, want 301 (redirect must not be followed)", resp.StatusCode)
	}
}

func TestGetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := newTestClient(2 * time.Second)
	_, err := c.Get(context.Background(), srv.URL+"/x/")
	if err == nil {
		t.Fatal("expected transport error")
	}
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *types.FetchError, got %T", err)
	}
}

func TestGetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(50 * time.Millisecond)
	_, err := c.Get(context.Background(), srv.URL+"/slow/")
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *types.FetchError on timeout, got %v", err)
	}
}

func TestGetGzipDecompression(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("index of /admin"))
		gz.Close()
	}))
	defer srv.Close()

	c := newTestClient(2 * time.Second)
	resp, err := c.Get(context.Background(), srv.URL+"/admin/")
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "index of /admin" {
		t.Errorf("body = %q, want decompressed payload", resp.Body)
	}
}

func TestGetBrotliDecompression(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		br.Write([]byte("brotli payload"))
		br.Close()
	}))
	defer srv.Close()

	c := newTestClient(2 * time.Second)
	resp, err := c.Get(context.Background(), srv.URL+"/x/")
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "brotli payload" {
		t.Errorf("body = %q, want decompressed payload", resp.Body)
	}
}

func TestGetSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second, UserAgent: "probe-test/1"})
	if _, err := c.Get(context.Background(), srv.URL+"/"); err != nil {
		t.Fatal(err)
	}
	if gotUA != "probe-test/1" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "probe-test/1")
	}
}

func TestGetConcurrentUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(2 * time.Second)
	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := c.Get(context.Background(), srv.URL+"/p/")
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent get: %v", err)
		}
	}
}

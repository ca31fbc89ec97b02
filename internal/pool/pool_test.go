package pool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

func fragmentsFor(server *httptest.Server, names ...string) []types.Fragment {
	fragments := make([]types.Fragment, 0, len(names))
	for _, name := range names {
		fragments = append(fragments, types.Fragment{Name: name, URL: server.URL + "/" + name})
	}
	return fragments
}

func numbered(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%d.ts", i)
	}
	return names
}

func newTestPool(server *httptest.Server, cfg Config) *Pool {
	p := New(server.Client(), cfg)
	p.renameBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, utils.RenameAttempts-1)
	}
	return p
}

func TestDownloadAllWritesEveryFragment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "payload:%s", r.URL.Path)
	}))
	defer server.Close()

	folder := t.TempDir()
	fragments := fragmentsFor(server, numbered(25)...)
	p := newTestPool(server, Config{Concurrency: 4})
	if err := p.DownloadAll(context.Background(), fragments, folder, nil); err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(fragments) {
		t.Fatalf("got %d files, want %d", len(entries), len(fragments))
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), utils.ProgressSuffix) {
			t.Errorf("temporary file %s left behind", entry.Name())
		}
	}
	data, err := os.ReadFile(filepath.Join(folder, "7.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload:/7.ts" {
		t.Errorf("7.ts content = %q", data)
	}
}

func TestDownloadAllSkipsExistingFiles(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	folder := t.TempDir()
	fragments := fragmentsFor(server, numbered(5)...)
	for _, f := range fragments {
		if err := os.WriteFile(filepath.Join(folder, f.Name), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var last float64
	var calls int
	p := newTestPool(server, Config{})
	err := p.DownloadAll(context.Background(), fragments, folder, func(percent float64) {
		calls++
		last = percent
	})
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d requests, want 0", n)
	}
	if calls != len(fragments) || last != 100 {
		t.Errorf("progress calls = %d last = %v, want %d and 100", calls, last, len(fragments))
	}
	data, _ := os.ReadFile(filepath.Join(folder, "0.ts"))
	if string(data) != "old" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestDownloadAllProgressIsMonotonic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	var percents []float64
	p := newTestPool(server, Config{Concurrency: 3})
	err := p.DownloadAll(context.Background(), fragmentsFor(server, numbered(10)...), t.TempDir(), func(percent float64) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}
	if len(percents) != 10 {
		t.Fatalf("got %d progress events, want 10", len(percents))
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards: %v", percents)
			break
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final progress = %v, want 100", percents[len(percents)-1])
	}
}

func TestDownloadAllNoFragments(t *testing.T) {
	p := New(http.DefaultClient, Config{})
	called := false
	err := p.DownloadAll(context.Background(), nil, t.TempDir(), func(float64) { called = true })
	if err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}
	if called {
		t.Error("progress reported for an empty batch")
	}
}

func TestDownloadAllRetriesTransientFailures(t *testing.T) {
	var mu sync.Mutex
	failures := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if failures[r.URL.Path] < 2 {
			failures[r.URL.Path]++
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	folder := t.TempDir()
	p := newTestPool(server, Config{})
	if err := p.DownloadAll(context.Background(), fragmentsFor(server, "a.ts", "b.ts"), folder, nil); err != nil {
		t.Fatalf("DownloadAll() error = %v", err)
	}
	for _, name := range []string{"a.ts", "b.ts"} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestDownloadAllFailsAfterMaxAttempts(t *testing.T) {
	var badRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.ts" {
			badRequests.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	folder := t.TempDir()
	fragments := fragmentsFor(server, "0.ts", "1.ts", "bad.ts")
	p := newTestPool(server, Config{Concurrency: 1})
	err := p.DownloadAll(context.Background(), fragments, folder, nil)
	if !errors.Is(err, utils.ErrFragmentDownloadFailed) {
		t.Fatalf("DownloadAll() error = %v, want ErrFragmentDownloadFailed", err)
	}
	if n := badRequests.Load(); n != utils.DefaultMaxAttempts {
		t.Errorf("bad fragment requested %d times, want %d", n, utils.DefaultMaxAttempts)
	}
	for _, name := range []string{"0.ts", "1.ts"} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("completed fragment %s was removed: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(folder, "bad.ts"+utils.ProgressSuffix)); !os.IsNotExist(err) {
		t.Error("temporary file of failed fragment left behind")
	}
}

func TestDownloadAllSiblingsFinishAfterFailure(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow.ts":
			close(arrived)
			<-release
			w.Write([]byte("late"))
		case "/bad.ts":
			<-arrived
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	folder := t.TempDir()
	p := newTestPool(server, Config{Concurrency: 2})
	err := p.DownloadAll(context.Background(), fragmentsFor(server, "slow.ts", "bad.ts"), folder, nil)
	if !errors.Is(err, utils.ErrFragmentDownloadFailed) {
		t.Fatalf("DownloadAll() error = %v, want ErrFragmentDownloadFailed", err)
	}
	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(filepath.Join(folder, "slow.ts")); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("in-flight fragment never completed after batch failure")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDownloadAllCancelOnFailure(t *testing.T) {
	cancelled := make(chan struct{})
	arrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow.ts":
			close(arrived)
			<-r.Context().Done()
			close(cancelled)
		case "/bad.ts":
			<-arrived
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	folder := t.TempDir()
	p := newTestPool(server, Config{Concurrency: 2, CancelOnFailure: true})
	err := p.DownloadAll(context.Background(), fragmentsFor(server, "slow.ts", "bad.ts"), folder, nil)
	if !errors.Is(err, utils.ErrFragmentDownloadFailed) {
		t.Fatalf("DownloadAll() error = %v, want ErrFragmentDownloadFailed", err)
	}
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}
}

func TestFinalizeGivesUpAfterRenameAttempts(t *testing.T) {
	folder := t.TempDir()
	temp := filepath.Join(folder, "x.ts"+utils.ProgressSuffix)
	if err := os.WriteFile(temp, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	// a non-empty directory cannot be replaced by a file
	target := filepath.Join(folder, "x.ts")
	if err := os.MkdirAll(filepath.Join(target, "inner"), 0755); err != nil {
		t.Fatal(err)
	}

	attempts := 0
	p := New(http.DefaultClient, Config{})
	p.renameBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&countingBackOff{n: &attempts}, utils.RenameAttempts-1)
	}
	if err := p.finalize(temp, target); err == nil {
		t.Fatal("finalize() succeeded on a directory target")
	}
	if attempts != utils.RenameAttempts-1 {
		t.Errorf("backoff consulted %d times, want %d", attempts, utils.RenameAttempts-1)
	}
}

type countingBackOff struct{ n *int }

func (c *countingBackOff) NextBackOff() time.Duration {
	*c.n++
	return 0
}

func (c *countingBackOff) Reset() {}

func TestDownloadAllStaysInsideFolder(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("x"))
	}))
	defer server.Close()

	root := t.TempDir()
	folder := filepath.Join(root, "downloads", "videos", "1", "hls", "q")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	fragments := []types.Fragment{{Name: "../../../../escaped.ts", URL: server.URL + "/escaped.ts"}}
	err := newTestPool(server, Config{}).DownloadAll(context.Background(), fragments, folder, nil)
	if !errors.Is(err, utils.ErrFragmentDownloadFailed) {
		t.Fatalf("DownloadAll() error = %v, want ErrFragmentDownloadFailed", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d requests for an unsafe name", n)
	}
	if _, err := os.Stat(filepath.Join(root, "downloads", "escaped.ts")); !os.IsNotExist(err) {
		t.Error("file written outside the job folder")
	}
}

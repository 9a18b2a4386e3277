package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/schemaviz/internal/metrics"
)

const wait = 5 * time.Second

func start(t *testing.T, dirs []string, opts ...Option) (<-chan string, *Watcher) {
	t.Helper()
	runs := make(chan string, 16)
	w, err := New(dirs, func(_ context.Context, runID string) error {
		runs <- runID
		return nil
	}, append([]Option{WithDebounce(20 * time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		w.Close()
	})
	return runs, w
}

func expectRun(t *testing.T, runs <-chan string) string {
	t.Helper()
	select {
	case id := <-runs:
		return id
	case <-time.After(wait):
		t.Fatal("no regeneration")
		return ""
	}
}

func expectQuiet(t *testing.T, runs <-chan string) {
	t.Helper()
	select {
	case id := <-runs:
		t.Fatalf("unexpected regeneration %s", id)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestNew(t *testing.T) {
	noop := func(context.Context, string) error { return nil }

	_, err := New([]string{t.TempDir()}, nil)
	require.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing")}, noop)
	require.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	w, err := New([]string{dir, filepath.Join(dir, "missing")}, noop)
	require.NoError(t, err)
	defer w.Close()
	assert.Len(t, w.fs.WatchList(), 3)
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	c := metrics.NewCollector()
	runs, _ := start(t, []string{dir}, WithMetrics(c))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	expectQuiet(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.json"), []byte(`{}`), 0o644))
	first := expectRun(t, runs)
	assert.NotEmpty(t, first)
	assert.Positive(t, testutil.CollectAndCount(c.WatchEvents))

	// A burst collapses into one run.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.json"), []byte(`{"title":"x"}`), 0o644))
	}
	second := expectRun(t, runs)
	assert.NotEqual(t, first, second)
}

func TestRunNewDirectory(t *testing.T) {
	dir := t.TempDir()
	runs, w := start(t, []string{dir})

	sub := filepath.Join(dir, "acct")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool {
		for _, p := range w.fs.WatchList() {
			if p == sub {
				return true
			}
		}
		return false
	}, wait, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "account.yaml"), []byte("title: A\n"), 0o644))
	expectRun(t, runs)
}

func TestRunHandlerError(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan struct{}, 4)
	w, err := New([]string{dir}, func(context.Context, string) error {
		calls <- struct{}{}
		return errors.New("render failed")
	}, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0o644))
	select {
	case <-calls:
	case <-time.After(wait):
		t.Fatal("handler not called")
	}
	// The watcher keeps running after a failed run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{}`), 0o644))
	select {
	case <-calls:
	case <-time.After(wait):
		t.Fatal("handler not called again")
	}

	require.NoError(t, w.Close())
	require.NoError(t, <-done)
	cancel()
}

func TestRelevant(t *testing.T) {
	w := &Watcher{ignore: make(map[string]struct{})}
	WithIgnore("out/graph.json")(w)

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "a.json", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a.yml", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "a.json", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "a.json", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "a.md", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "dir", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "out/graph.json", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "out/other.json", Op: fsnotify.Write}, true},
	}
	for _, tt := range tests {
		t.Run(tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestRunIgnoresOwnOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "graph.json")
	runs := make(chan string, 64)
	w, err := New([]string{dir}, func(_ context.Context, runID string) error {
		runs <- runID
		return os.WriteFile(out, []byte(`{"entities":[]}`), 0o644)
	}, WithDebounce(20*time.Millisecond), WithIgnore(out))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		w.Close()
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.json"), []byte(`{}`), 0o644))
	expectRun(t, runs)
	// Writing the output must not schedule another run.
	expectQuiet(t, runs)
	assert.FileExists(t, out)
}

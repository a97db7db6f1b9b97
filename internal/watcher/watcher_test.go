package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"joconde_watcher/internal/config"
	"joconde_watcher/internal/domain"
)

func testConfig(t *testing.T) config.WatchConfig {
	t.Helper()
	root := t.TempDir()
	return config.WatchConfig{
		InputDirectory:   filepath.Join(root, "incoming"),
		ArchiveDirectory: filepath.Join(root, "archive"),
		FileSuffix:       ".json",
		SettleDelay:      10 * time.Millisecond,
		ProgressEvery:    1000,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// recorder collects delivered files; safe to read from the test goroutine.
type recorder struct {
	mu    sync.Mutex
	files []domain.IncomingFile
}

func (r *recorder) handle(_ context.Context, file domain.IncomingFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, file)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f.Path)
	}
	return out
}

func TestWatcher_Accept(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.InputDirectory, 0o755))

	dirNamedJSON := filepath.Join(cfg.InputDirectory, "nested.json")
	require.NoError(t, os.Mkdir(dirNamedJSON, 0o755))

	w := New(cfg, func(context.Context, domain.IncomingFile) {}, discardLogger())

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"json file created", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch_00001.json"), Op: fsnotify.Create}, true},
		{"file vanished before stat", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "gone.json"), Op: fsnotify.Create}, true},
		{"create with chmod", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "b.json"), Op: fsnotify.Create | fsnotify.Chmod}, true},
		{"wrong suffix", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch.csv"), Op: fsnotify.Create}, false},
		{"temp file", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch.json.part"), Op: fsnotify.Create}, false},
		{"write event", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch.json"), Op: fsnotify.Write}, false},
		{"remove event", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch.json"), Op: fsnotify.Remove}, false},
		{"rename event", fsnotify.Event{Name: filepath.Join(cfg.InputDirectory, "batch.json"), Op: fsnotify.Rename}, false},
		{"directory with suffix", fsnotify.Event{Name: dirNamedJSON, Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.accept(tt.event))
		})
	}
}

func TestWatcher_StartRejectsUnusableDirectory(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.InputDirectory = blocker

	w := New(cfg, func(context.Context, domain.IncomingFile) {}, discardLogger())
	err := w.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestWatcher_StartRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.FileSuffix = ""

	w := New(cfg, func(context.Context, domain.IncomingFile) {}, discardLogger())
	assert.ErrorIs(t, w.Start(context.Background()), domain.ErrConfig)
}

func TestWatcher_DeliversMatchingFiles(t *testing.T) {
	cfg := testConfig(t)
	rec := &recorder{}
	w := New(cfg, rec.handle, discardLogger())

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()
	<-w.Ready()

	require.NoError(t, os.Mkdir(filepath.Join(cfg.InputDirectory, "sub.json"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDirectory, "notes.txt"), []byte("x"), 0o644))
	first := filepath.Join(cfg.InputDirectory, "batch_00001.json")
	second := filepath.Join(cfg.InputDirectory, "batch_00002.json")
	require.NoError(t, os.WriteFile(first, []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("[]"), 0o644))

	require.Eventually(t, func() bool { return len(rec.paths()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{first, second}, rec.paths())

	w.Stop()
	w.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_HandlerCallsAreSerialized(t *testing.T) {
	cfg := testConfig(t)
	cfg.SettleDelay = 0

	var (
		mu        sync.Mutex
		inFlight  int
		maxFlight int
		delivered int
	)
	handler := func(context.Context, domain.IncomingFile) {
		mu.Lock()
		inFlight++
		if inFlight > maxFlight {
			maxFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		delivered++
		mu.Unlock()
	}

	w := New(cfg, handler, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()
	<-w.Ready()

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDirectory, name), []byte("[]"), 0o644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 3
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, maxFlight)
	mu.Unlock()

	cancel()
	assert.True(t, errors.Is(<-errCh, context.Canceled))
}

func TestWatcher_StopDuringSettleLeavesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SettleDelay = time.Hour
	rec := &recorder{}

	var logs syncBuffer
	w := New(cfg, rec.handle, slog.New(slog.NewJSONHandler(&logs, nil)))

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()
	<-w.Ready()

	path := filepath.Join(cfg.InputDirectory, "batch_00001.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	require.Eventually(t, func() bool { return logs.contains(`"msg":"file detected"`) }, 5*time.Second, 10*time.Millisecond)

	w.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	assert.Empty(t, rec.paths())
	assert.FileExists(t, path)
}

func TestWatcher_StartAfterStop(t *testing.T) {
	cfg := testConfig(t)
	w := New(cfg, func(context.Context, domain.IncomingFile) {}, discardLogger())

	w.Stop()
	assert.NotPanics(t, func() {
		assert.NoError(t, w.Start(context.Background()))
		assert.NoError(t, w.Start(context.Background()))
	})

	select {
	case <-w.Ready():
	default:
		t.Fatal("ready channel not closed")
	}
}

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/variantforge/internal/document"
)

type recordingReloader struct {
	mu    sync.Mutex
	pages []string
}

func (r *recordingReloader) Reload(f *document.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, f.Page)
	return nil
}

func (r *recordingReloader) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return ""
	}
	return r.pages[len(r.pages)-1]
}

func startWatcher(t *testing.T, path string, target Reloader) (*documentWatcher, chan error) {
	t.Helper()
	dw, err := newDocumentWatcher(path, target, zaptest.NewLogger(t))
	require.NoError(t, err)
	dw.debounce = 20 * time.Millisecond

	reloads := make(chan error, 16)
	dw.onReload = func(err error) { reloads <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		dw.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		dw.Close()
		<-done
	})
	return dw, reloads
}

func TestDocumentWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chipDocument), 0644))

	target := &recordingReloader{}
	startWatcher(t, path, target)

	renamed := strings.Replace(chipDocument, "page: Tests", "page: Renamed", 1)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0644))

	require.Eventually(t, func() bool {
		return target.last() == "Renamed"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDocumentWatcher_ReloadsOnReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chipDocument), 0644))

	target := &recordingReloader{}
	startWatcher(t, path, target)

	tmp := filepath.Join(dir, "doc.yaml.tmp")
	renamed := strings.Replace(chipDocument, "page: Tests", "page: Replaced", 1)
	require.NoError(t, os.WriteFile(tmp, []byte(renamed), 0644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return target.last() == "Replaced"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDocumentWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chipDocument), 0644))

	target := &recordingReloader{}
	_, reloads := startWatcher(t, path, target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	select {
	case <-reloads:
		t.Fatal("sibling file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Empty(t, target.last())
}

func TestDocumentWatcher_ReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chipDocument), 0644))

	target := &recordingReloader{}
	_, reloads := startWatcher(t, path, target)

	require.NoError(t, os.WriteFile(path, []byte("page: [unclosed\n"), 0644))

	require.Eventually(t, func() bool {
		select {
		case err := <-reloads:
			return err != nil
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, target.last())
}

func TestDocumentWatcher_ReloadsMemoryHost(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chipDocument), 0644))

	host, err := document.LoadMemory(path)
	require.NoError(t, err)
	require.Equal(t, "Tests", host.Surface())

	_, reloads := startWatcher(t, path, host)

	renamed := strings.Replace(chipDocument, "page: Tests", "page: Renamed", 1)
	require.NoError(t, os.WriteFile(path, []byte(renamed), 0644))

	require.Eventually(t, func() bool {
		select {
		case err := <-reloads:
			return err == nil && host.Surface() == "Renamed"
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	r := BaseURL("https://cdn.example.com/photos/")
	assert.Equal(t, "https://cdn.example.com/photos/IMG%201.jpg", r("IMG 1.jpg"))
	assert.Equal(t, "", r("  "))
	assert.Equal(t, "", BaseURL("")("a.jpg"))
}

func TestBaseURLLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck photo.jpg"), []byte("x"), 0o644))

	ref := BaseURL(dir + "/")("deck photo.jpg")
	assert.Equal(t, filepath.Join(dir, "deck photo.jpg"), ref)
	assert.NoError(t, HTTPChecker{}.Check(context.Background(), ref))

	got := AwaitReady(context.Background(), HTTPChecker{}, []string{ref}, 2)
	assert.True(t, got.Ready())
}

func TestKnown(t *testing.T) {
	r := Known(BaseURL("/srv"), map[string]bool{"a.jpg": true})
	assert.Equal(t, "/srv/a.jpg", r("a.jpg"))
	assert.Equal(t, "", r("b.jpg"))
}

func TestCached(t *testing.T) {
	var calls int
	r := Cached(func(id string) string {
		calls++
		return "u/" + id
	}, time.Minute)
	assert.Equal(t, "u/x", r("x"))
	assert.Equal(t, "u/x", r("x"))
	assert.Equal(t, "u/y", r("y"))
	assert.Equal(t, 2, calls)
}

func TestHTTPChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := HTTPChecker{Client: srv.Client(), Timeout: time.Second}
	ctx := context.Background()
	assert.NoError(t, c.Check(ctx, srv.URL+"/ok.jpg"))
	assert.Error(t, c.Check(ctx, srv.URL+"/missing.jpg"))
}

func TestHTTPCheckerLocalPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	c := HTTPChecker{}
	ctx := context.Background()
	assert.NoError(t, c.Check(ctx, path))
	assert.NoError(t, c.Check(ctx, "file://"+path))
	assert.Error(t, c.Check(ctx, filepath.Join(dir, "b.jpg")))
}

type fakeChecker struct {
	bad      map[string]bool
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeChecker) Check(ctx context.Context, ref string) error {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if f.bad[ref] {
		return errors.New("broken")
	}
	return nil
}

func TestAwaitReady(t *testing.T) {
	c := &fakeChecker{bad: map[string]bool{"b": true, "d": true}}
	r := AwaitReady(context.Background(), c, []string{"a", "b", "", "c", "b", "d", "e"}, 2)
	assert.Equal(t, 5, r.Checked)
	assert.Equal(t, []string{"b", "d"}, r.Broken)
	assert.False(t, r.Ready())
	assert.LessOrEqual(t, c.peak.Load(), int32(2))
}

func TestAwaitReadyEmpty(t *testing.T) {
	r := AwaitReady(context.Background(), &fakeChecker{}, nil, 0)
	assert.True(t, r.Ready())
	assert.Zero(t, r.Checked)
}

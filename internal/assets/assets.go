// Package assets maps image ids to fetchable URLs and checks that the
// assets behind a page can be loaded.
package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Resolver maps an image id to a URL. An empty result means the id cannot be
// resolved and the cell is rendered as a placeholder.
type Resolver func(id string) string

// BaseURL resolves ids under base. A base with a scheme gets the id
// path-escaped; a base without one is a local directory and gets a plain
// file path.
func BaseURL(base string) Resolver {
	local := !strings.Contains(base, "://")
	if !local {
		base = strings.TrimRight(base, "/")
	}
	return func(id string) string {
		id = strings.TrimSpace(id)
		if id == "" || base == "" {
			return ""
		}
		if local {
			return filepath.Join(base, id)
		}
		return base + "/" + url.PathEscape(id)
	}
}

// Known restricts r to ids present in known. Anything else resolves to "".
func Known(r Resolver, known map[string]bool) Resolver {
	return func(id string) string {
		if !known[id] {
			return ""
		}
		return r(id)
	}
}

// Cached memoizes r for ttl.
func Cached(r Resolver, ttl time.Duration) Resolver {
	c := cache.New(ttl, ttl*2)
	return func(id string) string {
		if v, ok := c.Get(id); ok {
			return v.(string)
		}
		u := r(id)
		c.Set(id, u, cache.DefaultExpiration)
		return u
	}
}

// Checker reports whether one asset can be loaded.
type Checker interface {
	Check(ctx context.Context, ref string) error
}

// HTTPChecker issues a HEAD request for http(s) references and stats
// anything else as a local path.
type HTTPChecker struct {
	Client  *http.Client
	Timeout time.Duration
}

func (c HTTPChecker) Check(ctx context.Context, ref string) error {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		path := ref
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("assets.Check: %w", err)
		}
		return nil
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
	if err != nil {
		return fmt.Errorf("assets.Check: %w", err)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("assets.Check: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("assets.Check: %s returned %d", ref, resp.StatusCode)
	}
	return nil
}

// Readiness is the outcome of waiting for a set of assets.
type Readiness struct {
	Checked int      `json:"checked"`
	Broken  []string `json:"broken,omitempty"`
}

// Ready reports whether every asset loaded.
func (r Readiness) Ready() bool { return len(r.Broken) == 0 }

// AwaitReady checks every distinct non-empty ref, at most limit at a time
// (unbounded when limit <= 0), and returns once all have resolved. A failed
// check marks the ref broken; it never fails the join. Broken refs are
// returned in input order.
func AwaitReady(ctx context.Context, c Checker, refs []string, limit int) Readiness {
	var uniq []string
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		if r != "" && !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}

	failed := make([]bool, len(uniq))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ref := range uniq {
		g.Go(func() error {
			if err := c.Check(gctx, ref); err != nil {
				mu.Lock()
				failed[i] = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := Readiness{Checked: len(uniq)}
	for i, ref := range uniq {
		if failed[i] {
			out.Broken = append(out.Broken, ref)
		}
	}
	return out
}

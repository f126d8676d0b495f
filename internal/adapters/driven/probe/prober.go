package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency bounds how many URLs are probed at once.
	DefaultConcurrency = 8

	// defaultPerHostRate limits requests per second against one host.
	defaultPerHostRate  = rate.Limit(2)
	defaultPerHostBurst = 4

	// maxBodySize caps how much of a page is read for anchor checks.
	maxBodySize = 2 << 20

	userAgent = "doctrine-link-checker/1.0"
)

// Ensure Prober implements the LinkProber interface.
var _ driven.LinkProber = (*Prober)(nil)

// Prober checks external URLs over HTTP. Reachability uses HEAD with a
// GET fallback for servers that reject HEAD; anchor checks always GET
// because the page body is needed. Requests are bounded overall and
// rate limited per host so a corpus full of links to one docs site
// doesn't hammer it.
type Prober struct {
	client      *http.Client
	concurrency int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewProber creates an HTTP link prober. A zero timeout uses
// DefaultTimeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Prober{
		client:      &http.Client{Timeout: timeout},
		concurrency: DefaultConcurrency,
		limiters:    make(map[string]*rate.Limiter),
		perHost:     defaultPerHostRate,
		burst:       defaultPerHostBurst,
	}
}

// SetConcurrency overrides how many URLs are probed at once. Values
// below one keep the current setting.
func (p *Prober) SetConcurrency(n int) {
	if n >= 1 {
		p.concurrency = n
	}
}

// ProbeAll checks the given targets and returns one result per target,
// in target order. Individual failures land in the results; the
// returned error covers context cancellation only.
func (p *Prober) ProbeAll(ctx context.Context, targets []driven.ProbeTarget) ([]driven.ProbeResult, error) {
	results := make([]driven.ProbeResult, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := p.waitHost(ctx, target.URL); err != nil {
				return err
			}
			results[i] = p.probeOne(ctx, target)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// waitHost blocks until the target's host has request budget.
func (p *Prober) waitHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		// probeOne reports the parse failure in the result.
		return nil
	}
	return p.hostLimiter(u.Host).Wait(ctx)
}

// hostLimiter returns the rate limiter for a host, creating it on
// first use.
func (p *Prober) hostLimiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(p.perHost, p.burst)
		p.limiters[host] = limiter
	}
	return limiter
}

// probeOne checks a single URL and builds its verdict.
func (p *Prober) probeOne(ctx context.Context, target driven.ProbeTarget) driven.ProbeResult {
	result := driven.ProbeResult{
		URL:       target.URL,
		CheckedAt: time.Now().UTC(),
	}

	if _, err := url.Parse(target.URL); err != nil {
		result.Error = fmt.Sprintf("parse url: %v", err)
		return result
	}

	// Anchor checks need the body, so skip the HEAD round trip.
	if len(target.Fragments) > 0 {
		p.probeWithFragments(ctx, target, &result)
		return result
	}

	status, err := p.request(ctx, http.MethodHead, target.URL, nil)
	if err != nil || status >= http.StatusBadRequest {
		// Some servers reject HEAD outright; retry with GET before
		// declaring the URL dead.
		status, err = p.request(ctx, http.MethodGet, target.URL, nil)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = status
	result.OK = statusOK(status)
	return result
}

// probeWithFragments fetches the page and verifies each requested
// anchor exists in the HTML.
func (p *Prober) probeWithFragments(ctx context.Context, target driven.ProbeTarget, result *driven.ProbeResult) {
	var anchors map[string]struct{}
	var contentType string

	status, err := p.request(ctx, http.MethodGet, target.URL, func(resp *http.Response) error {
		contentType = resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, "html") {
			return nil
		}
		var parseErr error
		anchors, parseErr = collectAnchors(io.LimitReader(resp.Body, maxBodySize))
		return parseErr
	})
	if err != nil {
		result.Error = err.Error()
		return
	}

	result.StatusCode = status
	result.OK = statusOK(status)
	if !result.OK {
		// An unreachable page gets one issue, not one per anchor.
		return
	}

	// Non-HTML responses (PDF viewers interpret #page=3 themselves)
	// can't be anchor-checked; give them the benefit of the doubt.
	if !strings.Contains(contentType, "html") {
		return
	}

	for _, fragment := range target.Fragments {
		if _, ok := anchors[fragment]; ok {
			continue
		}
		// GitHub prefixes rendered heading anchors.
		if _, ok := anchors["user-content-"+fragment]; ok {
			continue
		}
		result.MissingFragments = append(result.MissingFragments, fragment)
	}
}

// request performs one HTTP request and returns the final status code.
// When onResponse is non-nil it is called with the open response before
// the body is drained.
func (p *Prober) request(ctx context.Context, method, rawURL string, onResponse func(*http.Response) error) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if onResponse != nil {
		if err := onResponse(resp); err != nil {
			return resp.StatusCode, err
		}
	}

	// Drain a little so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort

	return resp.StatusCode, nil
}

// collectAnchors gathers every addressable anchor in an HTML page:
// any element with an id, plus legacy <a name=...> anchors.
func collectAnchors(r io.Reader) (map[string]struct{}, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	anchors := make(map[string]struct{})
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			anchors[id] = struct{}{}
		}
	})
	doc.Find("a[name]").Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok && name != "" {
			anchors[name] = struct{}{}
		}
	})
	return anchors, nil
}

func statusOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusBadRequest
}

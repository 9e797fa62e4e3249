// Package source implements the remote activity sources. Each adapter
// turns one upstream API into a stream of raw activity records, handling
// its own pagination, rate-limit pauses and transient-failure retries.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

const (
	defaultUserAgent = "recap/1.0"

	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second

	// Upper bound on a server-requested rate pause. Anything longer is
	// treated as the source being unavailable.
	maxRatePause = 15 * time.Minute

	// A server stuck in permanent 429 should not spin one request
	// forever.
	maxRatePausesPerCall = 10
)

// Reusable regex to pull the rel="next" target out of a Link header.
var nextLinkRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

// BuildAdapters constructs one adapter per enabled source.
func BuildAdapters(cfg *contract.Config) []contract.SourceAdapter {
	var adapters []contract.SourceAdapter
	for _, s := range cfg.Sources {
		switch s {
		case schema.GitHubSource:
			adapters = append(adapters, NewGitHub(cfg))
		case schema.BugzillaSource:
			adapters = append(adapters, NewBugzilla(cfg))
		}
	}
	return adapters
}

// newHTTPClient builds an HTTP client with sane transport limits for
// long paginated crawls.
func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// client is the shared request engine behind both adapters. One client
// exists per source, so all fetches against that source pace through the
// same limiter no matter how many actors are in flight.
type client struct {
	http       *http.Client
	limiter    *rate.Limiter
	retryLimit int
	headers    map[string]string

	backoffBase time.Duration
	backoffMax  time.Duration
}

func newClient(cfg *contract.Config, requestsPerSec float64, headers map[string]string) *client {
	return &client{
		http:        newHTTPClient(cfg.Timeout),
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		retryLimit:  cfg.RetryLimit,
		headers:     headers,
		backoffBase: initialBackoff,
		backoffMax:  maxBackoff,
	}
}

// pace blocks until the local limiter grants a slot, counting the pause
// when one actually happened.
func (c *client) pace(ctx context.Context, stats *schema.FetchStats) error {
	r := c.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	stats.RateWaits++
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// getJSON fetches endpoint and decodes its body into v. Transient
// failures are retried with exponential backoff up to the configured
// budget; server-side rate limits suspend the call until the limit
// resets without consuming that budget. The headers of the successful
// response are returned for pagination.
func (c *client) getJSON(ctx context.Context, endpoint string, stats *schema.FetchStats, v any) (http.Header, error) {
	backoff := c.backoffBase
	var lastErr error

	attempt, pauses := 0, 0
	for attempt < c.retryLimit {
		if lastErr != nil {
			// Back off between failed attempts.
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if backoff < c.backoffMax {
				backoff *= 2
			}
		}

		if err := c.pace(ctx, stats); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		for k, val := range c.headers {
			req.Header.Set(k, val)
		}

		stats.Requests++
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("do request: %w", err)
			attempt++
			continue
		}

		header, retry, err := c.handleResponse(ctx, resp, stats, v)
		if err == nil {
			return header, nil
		}
		if !retry {
			return nil, err
		}
		if errors.Is(err, errRatePaused) {
			// The pause was already served; resume without spending
			// the retry budget.
			pauses++
			if pauses > maxRatePausesPerCall {
				return nil, fmt.Errorf("rate limited %d times for one request, giving up", pauses)
			}
			continue
		}
		lastErr = err
		attempt++
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.retryLimit, lastErr)
}

// handleResponse consumes one HTTP response. The retry result tells the
// caller whether the failure is worth another attempt.
func (c *client) handleResponse(ctx context.Context, resp *http.Response, stats *schema.FetchStats, v any) (header http.Header, retry bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			// Likely a proxy error page; worth another attempt.
			return nil, true, fmt.Errorf("decode response: %w", err)
		}
		return resp.Header, false, nil

	case isRateLimited(resp):
		pause := ratePause(resp.Header, time.Now())
		if pause > maxRatePause {
			return nil, false, fmt.Errorf("rate limit reset %s away, giving up", pause.Round(time.Second))
		}
		stats.RateWaits++
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		// A rate pause is expected behavior and does not consume the
		// retry budget.
		return nil, true, errRatePaused

	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d from %s", resp.StatusCode, resp.Request.URL)

	default:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL)
	}
}

// errRatePaused signals that the previous attempt paused for a rate
// limit rather than failing.
var errRatePaused = errors.New("rate limited, resumed after pause")

// isRateLimited recognizes both plain 429 responses and GitHub's
// 403-with-zero-remaining convention.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// ratePause derives a wait duration from Retry-After seconds or an
// X-RateLimit-Reset epoch, defaulting to a minute when neither parses.
func ratePause(h http.Header, now time.Time) time.Duration {
	if s := h.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if s := h.Get("X-RateLimit-Reset"); s != "" {
		if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
			if pause := time.Unix(epoch, 0).Sub(now); pause > 0 {
				return pause + time.Second
			}
			return time.Second
		}
	}
	return time.Minute
}

// extractNextLink pulls the rel="next" URL out of a Link header.
// Returns empty when there is no next page.
func extractNextLink(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	matches := nextLinkRe.FindStringSubmatch(linkHeader)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// wrapFetchErr marks err as a source availability failure unless the
// fetch was cancelled from above, in which case the cancellation
// passes through untouched.
func wrapFetchErr(source schema.SourceID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", source, contract.ErrSourceUnavailable, err)
}

package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/auraspace/internal/shared"
)

// DefaultProbeTimeout bounds a single probe when the caller's client has no timeout.
const DefaultProbeTimeout = 10 * time.Second

// HTTPProber implements [Prober] over net/http.
type HTTPProber struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPProber creates a prober. A nil client gets one with [DefaultProbeTimeout].
func NewHTTPProber(client *http.Client) *HTTPProber {
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}

	return &HTTPProber{
		httpClient: client,
		userAgent:  "aura-probe/1",
	}
}

// Probe checks url with HEAD, retrying as a ranged GET when HEAD is not allowed.
func (p *HTTPProber) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	if !shared.IsExternalURL(url) {
		return nil, fmt.Errorf("%w: not an http(s) URL: %q", shared.ErrInvalidArgument, url)
	}

	start := time.Now()

	resp, err := p.do(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = p.do(ctx, http.MethodGet, url)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s answered %d", shared.ErrSourceUnreachable, url, resp.StatusCode)
	}

	result := &ProbeResult{
		URL:           url,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		AcceptRanges:  strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes") || resp.StatusCode == http.StatusPartialContent,
		Elapsed:       time.Since(start),
	}

	return result, nil
}

// do performs one request and drains the body so the connection can be reused.
func (p *HTTPProber) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp, nil
}

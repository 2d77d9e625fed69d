package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 16 << 20

// Fetcher performs the network leg of a request.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*Response, error)
}

// OriginFetcher forwards requests to the storefront origin. Relative request
// URLs resolve against the origin; responses from other hosts are typed cors.
type OriginFetcher struct {
	origin *url.URL
	client *http.Client
}

// NewOriginFetcher builds a fetcher for origin. Redirects are not followed so a
// 3xx surfaces as an opaqueredirect response that is never cached.
func NewOriginFetcher(origin string, timeout time.Duration) (*OriginFetcher, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("origin %q must be absolute", origin)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OriginFetcher{
		origin: u,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (f *OriginFetcher) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	target := f.resolve(req.URL)

	var body io.Reader
	if req.Body != nil && req.Method != http.MethodGet && req.Method != http.MethodHead {
		body = req.Body
	}
	out, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	copyRequestHeaders(out.Header, req.Header)

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target.Redacted(), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target.Redacted(), err)
	}
	if len(payload) > maxBodyBytes {
		return nil, errors.New("upstream body exceeds limit")
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   payload,
		Type:   f.classify(target, resp.StatusCode),
	}, nil
}

func (f *OriginFetcher) resolve(u *url.URL) *url.URL {
	if u == nil {
		return f.origin
	}
	if u.IsAbs() {
		return u
	}
	return f.origin.ResolveReference(&url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: u.RawQuery})
}

func (f *OriginFetcher) classify(target *url.URL, status int) ResponseType {
	if status >= 300 && status < 400 {
		return ResponseOpaqueRedirect
	}
	if !strings.EqualFold(target.Host, f.origin.Host) || target.Scheme != f.origin.Scheme {
		return ResponseCORS
	}
	return ResponseBasic
}

var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func copyRequestHeaders(dst, src http.Header) {
	for k, values := range src {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(k)]; hop {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

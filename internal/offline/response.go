package offline

import (
	"net/http"
	"net/url"
	"strings"
)

// ResponseType classifies a network response the way the cache filter needs.
type ResponseType string

const (
	ResponseBasic          ResponseType = "basic"
	ResponseCORS           ResponseType = "cors"
	ResponseOpaque         ResponseType = "opaque"
	ResponseOpaqueRedirect ResponseType = "opaqueredirect"
	ResponseError          ResponseType = "error"
)

// Response is a fully buffered HTTP response.
type Response struct {
	Status int          `json:"status"`
	Header http.Header  `json:"header,omitempty"`
	Body   []byte       `json:"body,omitempty"`
	Type   ResponseType `json:"type"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Cacheable reports whether a fetched response may be stored: a same-origin 200.
func (r *Response) Cacheable() bool {
	return r != nil && r.Status == http.StatusOK && r.Type == ResponseBasic
}

// Clone returns a deep copy so the caller and the cache never share buffers.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := &Response{Status: r.Status, Type: r.Type, Header: r.Header.Clone()}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// Write copies the response onto w.
func (r *Response) Write(w http.ResponseWriter) error {
	for k, values := range r.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// RequestKey identifies a request inside a cache store. Same-origin requests
// are keyed by path and query only.
func RequestKey(req *http.Request) string {
	return req.Method + " " + requestTarget(req, false)
}

// requestTarget renders the request URL. With absolute set, a missing host is
// filled from req.Host so host-based bypass rules can match.
func requestTarget(req *http.Request, absolute bool) string {
	u := req.URL
	if u == nil {
		u = &url.URL{Path: "/"}
	}
	if u.Host != "" {
		return u.String()
	}
	if absolute && req.Host != "" {
		scheme := "http"
		if req.TLS != nil {
			scheme = "https"
		}
		return scheme + "://" + req.Host + u.RequestURI()
	}
	return u.RequestURI()
}

func matchesAny(target string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(target, p) {
			return true
		}
	}
	return false
}

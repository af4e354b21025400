package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/alecthomas/errors"
	"github.com/go-chi/chi/v5"
)

const maxBody = 1 << 20

var (
	// ErrEmptyBody is returned by Bind when the request has no body.
	ErrEmptyBody = errors.New("empty request body")
	// ErrBodyTooLarge is returned by Bind when the body exceeds 1MB.
	ErrBodyTooLarge = errors.New("request body too large")
)

// Request wraps *http.Request with JSON binding and parameter helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// Bind decodes a JSON body of at most 1MB into v. The body must hold exactly
// one JSON value and unknown fields are rejected.
func (req *Request) Bind(v any) error {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, maxBody+1))
	if err != nil {
		return errors.Wrap(err, "failed to read request body")
	}
	if len(body) > maxBody {
		return errors.WithStack(ErrBodyTooLarge)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.WithStack(ErrEmptyBody)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected data after the first value")
	}
	return nil
}

// Query returns a query string value, or the first fallback when absent.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// QueryAll returns every value of a repeated query parameter.
func (req *Request) QueryAll(key string) []string {
	return req.raw.URL.Query()[key]
}

// RouteParam returns a URL parameter captured by the router.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

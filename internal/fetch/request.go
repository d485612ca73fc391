package fetch

import (
	"fmt"
	"net/url"
)

// Request is a GET of a single url, the spider that created it can attach
// typed metadata to carry state to the handler of its response.
type Request struct {
	Url  *url.URL
	meta []any
}

func NewRequest(u *url.URL) *Request {
	return &Request{Url: u}
}

// ParseRequest is NewRequest for a raw url string.
func ParseRequest(raw string) (*Request, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse request url %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("request url %q is not absolute", raw)
	}
	return NewRequest(u), nil
}

// AddMeta attaches a value to the request, values are looked up by type so
// attach at most one value of each type.
func (r *Request) AddMeta(value any) *Request {
	r.meta = append(r.meta, value)
	return r
}

// GetRequestMeta returns the value of type T attached to the request.
func GetRequestMeta[T any](r *Request) (T, bool) {
	for _, m := range r.meta {
		v, ok := m.(T)
		if ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (r *Request) String() string {
	return r.Url.String()
}

package fetch

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Response is a successfully fetched page.
type Response struct {
	// Url is the final url after redirects.
	Url        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
	// FromCache is true when the page was served by the page cache.
	FromCache bool

	request *Request

	docOnce sync.Once
	doc     *goquery.Document
	docErr  error
}

func NewResponse(req *Request, final *url.URL, status int, header http.Header, body []byte) *Response {
	if final == nil {
		final = req.Url
	}
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		Url:        final,
		StatusCode: status,
		Header:     header,
		Body:       body,
		request:    req,
	}
}

func (r *Response) Request() *Request {
	return r.request
}

// Document parses the body as HTML once and returns the same document on
// every call.
func (r *Response) Document() (*goquery.Document, error) {
	r.docOnce.Do(func() {
		r.doc, r.docErr = goquery.NewDocumentFromReader(bytes.NewBuffer(r.Body))
	})
	return r.doc, r.docErr
}

// Resolve resolves a link found on this page against the page's final url.
func (r *Response) Resolve(href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	return r.Url.ResolveReference(ref), nil
}

// IsXML reports whether the page is an XML document. The content type and the
// xml declaration decide it, the url suffix only breaks ties when the server
// sent no useful content type.
func (r *Response) IsXML() bool {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(contentType, "xml") && !strings.Contains(contentType, "html") {
		return true
	}
	if bytes.HasPrefix(bytes.TrimSpace(r.Body), []byte("<?xml")) {
		return true
	}
	if contentType == "" ||
		strings.HasPrefix(contentType, "text/plain") ||
		strings.HasPrefix(contentType, "application/octet-stream") {
		return strings.HasSuffix(strings.ToLower(r.Url.Path), ".xml")
	}
	return false
}

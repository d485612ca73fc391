package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"edgar13f/internal/assert"
	"edgar13f/internal/components/telemetry"
	"edgar13f/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("edgar13f/internal/fetch")
var meter = otel.Meter("edgar13f/internal/fetch")

const (
	report_engine_fetch  = "engine.fetch"
	report_engine_handle = "engine.handle"
	report_engine_cache  = "engine.cache"
)

// ErrStatus is returned for responses with a non-2xx status code.
var ErrStatus = errors.New("unexpected status")

// Navigator lets a spider schedule more requests while handling a response.
type Navigator interface {
	Request(req *Request)
}

// Spider drives a crawl, the engine fetches its starting requests and hands
// every response back to it.
type Spider interface {
	StartingRequests() []*Request
	HandleResponse(ctx context.Context, nav Navigator, res *Response) error
}

// FailureHandler is implemented by spiders that want to know about requests
// that could not be fetched.
type FailureHandler interface {
	HandleFailure(ctx context.Context, req *Request, err error)
}

type Options struct {
	// UserAgent is sent with every request, sec.gov requires it to name the
	// requester and a contact address.
	UserAgent string
	// RequestsPerSecond and Burst configure the politeness limiter.
	RequestsPerSecond float64
	Burst             int
	// Concurrency bounds how many requests are in flight at once.
	Concurrency int
	Timeout     time.Duration
	// Retries is the number of additional attempts on a transport error or a
	// 429/5xx response.
	Retries int
	// BrowserTransport makes the TLS handshake and headers look like a browser.
	BrowserTransport bool
	// Cache is optional.
	Cache *PageCache
	// Dump is optional, when set every exchange is written into it.
	Dump restyutil.InstrumentOutput
}

// Engine fetches requests for spiders.
type Engine struct {
	http  *resty.Client
	sem   *semaphore.Weighted
	cache *PageCache
	tel   telemetry.API

	fetched metric.Int64Counter
	failed  metric.Int64Counter
}

func NewEngine(opts Options, tel telemetry.API) (*Engine, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.UserAgent)
	assert.Positive("concurrency", opts.Concurrency)

	tel = telemetry.NewScopedAPI("fetch", tel)

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.BrowserTransport {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(opts.Timeout)

	httpClient.SetRetryCount(opts.Retries)
	httpClient.SetRetryWaitTime(time.Second)
	httpClient.SetRetryMaxWaitTime(time.Second * 10)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests ||
			res.StatusCode() >= 500
	})

	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(opts.RequestsPerSecond)
	if opts.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	rateLimiter := rate.NewLimiter(limit, burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.Dump)

	fetched, err := meter.Int64Counter(
		"edgar13f.fetch.pages",
		metric.WithDescription("pages delivered to spiders"),
	)
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter(
		"edgar13f.fetch.failures",
		metric.WithDescription("requests that could not be fetched"),
	)
	if err != nil {
		return nil, err
	}

	return &Engine{
		http:    httpClient,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		cache:   opts.Cache,
		tel:     tel,
		fetched: fetched,
		failed:  failed,
	}, nil
}

type navigator struct {
	ctx    context.Context
	engine *Engine
	spider Spider
	wg     *sync.WaitGroup
}

func (n navigator) Request(req *Request) {
	assert.NotNil(req)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.engine.process(n.ctx, n, req)
	}()
}

// Run fetches the spider's starting requests and every request scheduled
// while handling their responses, it returns once there is nothing left in
// flight.
func (e *Engine) Run(ctx context.Context, spider Spider) error {
	var wg sync.WaitGroup
	nav := navigator{ctx: ctx, engine: e, spider: spider, wg: &wg}
	for _, req := range spider.StartingRequests() {
		nav.Request(req)
	}
	wg.Wait()
	return ctx.Err()
}

func (e *Engine) process(ctx context.Context, nav navigator, req *Request) {
	res, err := e.Fetch(ctx, req)
	if err != nil {
		e.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("host", req.Url.Host)))
		e.tel.ReportWarning(report_engine_fetch, req.Url.String(), err)
		if handler, ok := nav.spider.(FailureHandler); ok {
			handler.HandleFailure(ctx, req, err)
		}
		return
	}
	e.fetched.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", res.FromCache)))

	err = nav.spider.HandleResponse(ctx, nav, res)
	if err != nil {
		e.tel.ReportWarning(report_engine_handle, res.Url.String(), err)
	}
}

// Fetch performs a single request, honoring the cache, concurrency bound and
// rate limit, without handing the response to any spider.
func (e *Engine) Fetch(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.Url.String()))

	if e.cache != nil {
		page, ok, err := e.cache.Get(ctx, req.Url)
		if err != nil {
			e.tel.ReportWarning(report_engine_cache, err)
		}
		if ok {
			return e.cachedResponse(req, page), nil
		}
	}

	err := e.sem.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	res, err := e.http.R().SetContext(ctx).Get(req.Url.String())
	e.sem.Release(1)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err = fmt.Errorf("%w: %s %s", ErrStatus, res.Status(), req.Url)
		span.RecordError(err)
		return nil, err
	}

	final := req.Url
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL
	}
	out := NewResponse(req, final, res.StatusCode(), res.Header(), res.Body())

	if e.cache != nil {
		err = e.cache.Set(ctx, req.Url, CachedPage{
			Url:         final.String(),
			StatusCode:  out.StatusCode,
			ContentType: out.Header.Get("Content-Type"),
			Body:        out.Body,
		})
		if err != nil {
			e.tel.ReportWarning(report_engine_cache, err)
		}
	}
	return out, nil
}

func (e *Engine) cachedResponse(req *Request, page CachedPage) *Response {
	final, err := url.Parse(page.Url)
	if err != nil {
		final = req.Url
	}
	header := http.Header{}
	if page.ContentType != "" {
		header.Set("Content-Type", page.ContentType)
	}
	res := NewResponse(req, final, page.StatusCode, header, page.Body)
	res.FromCache = true
	return res
}

package restyutil

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives a text dump of every exchange, ids are unique
// per client and sort in request order.
type InstrumentOutput interface {
	Write(id string, contents string)
}

var unsafeIdChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// messageId names an exchange after its sequence number and its url,
// "0003-www.sec.gov-cgi-bin-browse-edgar".
func messageId(n uint64, rawUrl string) string {
	slug := rawUrl
	if u, err := url.Parse(rawUrl); err == nil {
		slug = u.Host + u.Path
	}
	slug = unsafeIdChars.ReplaceAllString(slug, "-")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	return fmt.Sprintf("%04d-%s", n, slug)
}

type instrumentCtx struct {
	output    InstrumentOutput
	tracer    trace.Tracer
	idcounter *uint64
}

// InstrumentClient wraps every request of the client in a span.
//
// `tracer` can be nil, it will default to a library name of "resty"
// `output` can also be nil, if it is not, every exchange is dumped into it
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}

	var idcounter uint64
	i := instrumentCtx{output: output, tracer: tracer, idcounter: &idcounter}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type messageIdKeyType int

var messageIdKey messageIdKeyType

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(
		req.Context(),
		fmt.Sprintf("http %s", req.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
		),
	)
	id := messageId(atomic.AddUint64(i.idcounter, 1), req.URL)
	ctx = context.WithValue(ctx, messageIdKey, id)
	req.SetContext(ctx)
	return nil
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(
		attribute.Int("http.response.status_code", res.StatusCode()),
		attribute.Int("http.response.body.size", len(res.Body())),
	)
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	if i.output != nil {
		id, ok := ctx.Value(messageIdKey).(string)
		if ok {
			i.output.Write(id, formatHttpMessage(res))
		}
	}
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
}

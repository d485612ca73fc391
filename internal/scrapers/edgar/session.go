package edgar

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"edgar13f/internal/assert"
	"edgar13f/internal/components/telemetry"
	"edgar13f/internal/fetch"

	"github.com/google/uuid"
)

const (
	report_session_classify     = "session.classify"
	report_session_terminal     = "session.terminal"
	report_session_unrecognized = "session.unrecognized"
	report_session_document     = "session.document"
	report_session_failure      = "session.failure"
	report_session_pages        = "session.pages"
)

// DocumentSink receives the target documents a crawl reaches.
type DocumentSink interface {
	Summary(ctx context.Context, body []byte) error
	Holdings(ctx context.Context, body []byte, cik, date string) error
}

// Stats counts what happened during a session.
type Stats struct {
	Pages        int
	Unrecognized int
	Documents    int
	Failures     int
}

// Session crawls the index for a single entity, it implements fetch.Spider.
// Responses may be delivered from several goroutines at once.
type Session struct {
	Id string

	start *url.URL
	sink  DocumentSink
	tel   telemetry.API

	mutex sync.Mutex
	state *CrawlState
	stats Stats
}

func NewSession(
	q EntityQuery,
	depth int,
	baseUrl *url.URL,
	sink DocumentSink,
	tel telemetry.API,
) (*Session, error) {
	assert.NotNil(baseUrl)
	assert.NotNil(sink)
	assert.NotNil(tel)

	state, err := NewCrawlState(q, depth)
	if err != nil {
		return nil, err
	}
	start, err := SearchUrl(baseUrl, q)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	return &Session{
		Id:    id,
		start: start,
		sink:  sink,
		tel:   telemetry.NewScopedAPI(fmt.Sprintf("edgar[%s]", id[:8]), tel),
		state: state,
	}, nil
}

// Query returns the entity being crawled, its CIK may have been filled in
// by the crawl.
func (s *Session) Query() EntityQuery {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state.Query
}

func (s *Session) Stats() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stats
}

func (s *Session) StartingRequests() []*fetch.Request {
	return []*fetch.Request{newRequest(s.start, ContinueParse, -1)}
}

func (s *Session) HandleResponse(ctx context.Context, nav fetch.Navigator, res *fetch.Response) error {
	meta := metaOf(res.Request())

	s.mutex.Lock()
	query := s.state.Query
	s.mutex.Unlock()

	c := Classify(ctx, res, query)
	s.tel.ReportDebug(report_session_classify, c.Kind.String(), meta.cont.String(), res.Url.String())

	s.mutex.Lock()
	action := s.state.Next(c, meta)
	s.stats.Pages++
	if c.Kind == Unrecognized {
		s.stats.Unrecognized++
	}
	pages := s.stats.Pages
	s.mutex.Unlock()

	s.tel.ReportCount(report_session_pages, int64(pages))
	if c.Kind == Unrecognized {
		s.tel.ReportWarning(report_session_unrecognized, res.Url.String())
	}
	s.apply(ctx, nav, action)
	return nil
}

func (s *Session) HandleFailure(ctx context.Context, req *fetch.Request, err error) {
	s.tel.ReportWarning(report_session_failure, req.Url.String(), err)

	s.mutex.Lock()
	s.stats.Failures++
	action := s.state.Failed(metaOf(req))
	s.mutex.Unlock()

	s.apply(ctx, nil, action)
}

func (s *Session) apply(ctx context.Context, nav fetch.Navigator, action Action) {
	if action.Err != nil {
		s.tel.ReportWarning(report_session_terminal, action.Err)
	}
	if action.Note != "" {
		s.tel.ReportDebug(action.Note)
	}

	for _, doc := range action.Documents {
		var err error
		switch doc.Kind {
		case SummaryDocument:
			err = s.sink.Summary(ctx, doc.Body)
		case HoldingsReport:
			err = s.sink.Holdings(ctx, doc.Body, doc.CIK, doc.Date)
		}
		if err != nil {
			// persistence and parsing failures only lose this document
			s.tel.ReportWarning(report_session_document, err)
			continue
		}
		s.mutex.Lock()
		s.stats.Documents++
		s.mutex.Unlock()
	}

	if nav == nil {
		return
	}
	for _, req := range action.Requests {
		nav.Request(req)
	}
}

// Finish returns the error that ended the crawl. A depth batch that never
// completed is dropped and reported as a correlation failure.
func (s *Session) Finish() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.state.Terminal(); err != nil {
		return err
	}
	if pending := s.state.Pending(); pending > 0 {
		err := fmt.Errorf(
			"%w: %d of %d reports never arrived, dropping the batch",
			ErrCorrelation, pending, len(s.state.slots),
		)
		s.tel.ReportWarning(report_session_terminal, err)
		return err
	}
	return nil
}

// Crawl runs a session to completion on an engine.
func Crawl(ctx context.Context, engine *fetch.Engine, session *Session) error {
	err := engine.Run(ctx, session)
	if err != nil {
		return err
	}
	return session.Finish()
}

package edgar

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"edgar13f/internal/fetch"
	"edgar13f/lib/textutil"

	"github.com/antzucaro/matchr"
	"github.com/samber/lo"
)

// Continuation is how the response to a request should be treated.
type Continuation int

const (
	// ContinueParse is the regular single report path.
	ContinueParse Continuation = iota
	// ContinueDepth belongs to one report of a depth batch.
	ContinueDepth
)

func (c Continuation) String() string {
	if c == ContinueDepth {
		return "depth"
	}
	return "parse"
}

// requestMeta travels with every request the state machine emits, slot is
// the depth batch position it belongs to or -1.
type requestMeta struct {
	cont Continuation
	slot int
}

func newRequest(u *url.URL, cont Continuation, slot int) *fetch.Request {
	return fetch.NewRequest(u).AddMeta(requestMeta{cont: cont, slot: slot})
}

func metaOf(req *fetch.Request) requestMeta {
	meta, ok := fetch.GetRequestMeta[requestMeta](req)
	if !ok {
		return requestMeta{cont: ContinueParse, slot: -1}
	}
	return meta
}

// DocumentKind selects the pipeline a document is delivered to.
type DocumentKind int

const (
	SummaryDocument DocumentKind = iota
	HoldingsReport
)

// Document is a target document ready to be flattened.
type Document struct {
	Kind DocumentKind
	Body []byte
	// CIK and Date are only set for holdings reports.
	CIK  string
	Date string
}

// Action is what the state machine decided to do with a page. Err is set
// when the crawl reached a terminal state.
type Action struct {
	Requests  []*fetch.Request
	Documents []Document
	Err       error
	// Note is a human readable explanation of a non terminal no-op.
	Note string
}

// slot pairs one report of a depth batch with its filing date.
type slot struct {
	date     string
	body     []byte
	received bool
}

// CrawlState is everything a crawl remembers between pages.
type CrawlState struct {
	Query EntityQuery
	Depth int
	// Date is the filing date of the most recent report, only used when
	// Depth is 1.
	Date string

	slots    []slot
	batched  bool
	terminal error
}

func NewCrawlState(q EntityQuery, depth int) (*CrawlState, error) {
	if q.IsZero() {
		return nil, fmt.Errorf("%w: empty entity", ErrUserInput)
	}
	if depth < 1 {
		return nil, fmt.Errorf("%w: depth must be at least 1, got %d", ErrUserInput, depth)
	}
	return &CrawlState{Query: q, Depth: depth}, nil
}

// Terminal returns the error that ended the crawl, if any.
func (s *CrawlState) Terminal() error {
	return s.terminal
}

func (s *CrawlState) terminate(err error) Action {
	s.terminal = err
	return Action{Err: err}
}

// Next decides what to do with a classified page that was fetched by a
// request carrying meta. Once the crawl is terminal it does nothing.
func (s *CrawlState) Next(c Classification, meta requestMeta) Action {
	if s.terminal != nil {
		return Action{Note: "crawl already ended"}
	}

	switch c.Kind {
	case NoMatch:
		return s.terminate(fmt.Errorf("%w: %s", ErrNoMatch, s.Query))
	case FilingsList:
		return s.onFilingsList(c)
	case AmbiguousNameMatch:
		return s.onAmbiguous(c)
	case FilingDetail:
		return s.onFilingDetail(c, meta)
	case PrimaryDocument:
		return Action{Documents: []Document{{Kind: SummaryDocument, Body: c.Body}}}
	case HoldingsDocument:
		if meta.cont == ContinueDepth {
			return s.onDepthReport(c.Body, meta.slot)
		}
		return Action{Documents: []Document{{
			Kind: HoldingsReport,
			Body: c.Body,
			CIK:  s.Query.CIK,
			Date: s.Date,
		}}}
	default:
		return Action{Note: "unrecognized page"}
	}
}

func (s *CrawlState) onFilingsList(c Classification) Action {
	if s.Query.CIK == "" && c.CompanyCIK != "" {
		s.Query.CIK = c.CompanyCIK
	}
	if len(c.Reports) == 0 {
		return s.terminate(fmt.Errorf("%w: %s", ErrNoReports, s.Query))
	}

	if s.Depth == 1 {
		latest := c.Reports[0]
		if s.Date == "" {
			s.Date = latest.Date
		}
		return Action{Requests: []*fetch.Request{
			newRequest(latest.Link, ContinueParse, -1),
		}}
	}

	if s.batched {
		return Action{Note: "depth batch already started"}
	}
	s.batched = true

	rows := c.Reports[:min(s.Depth, len(c.Reports))]
	s.slots = make([]slot, len(rows))
	requests := make([]*fetch.Request, len(rows))
	for i, row := range rows {
		s.slots[i] = slot{date: row.Date}
		requests[i] = newRequest(row.Link, ContinueDepth, i)
	}
	return Action{Requests: requests}
}

func (s *CrawlState) onAmbiguous(c Classification) Action {
	if s.Query.CIK == "" {
		return s.terminate(fmt.Errorf(
			"%w: %q matches several companies, give a CIK to pick one%s",
			ErrUserInput, s.Query.Name, suggestions(s.Query.Name, c.Candidates),
		))
	}
	for _, candidate := range c.Candidates {
		if textutil.SameIdentifier(candidate.CIK, s.Query.CIK) {
			return Action{Requests: []*fetch.Request{
				newRequest(candidate.Link, ContinueParse, -1),
			}}
		}
	}
	return s.terminate(fmt.Errorf(
		"%w: CIK %s is not among the companies matching %q",
		ErrUserInput, s.Query.CIK, s.Query.Name,
	))
}

const maxSuggestions = 5

// suggestions lists the candidates closest to name, best first.
func suggestions(name string, candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	target := textutil.NormalizeName(name)
	type scored struct {
		candidate Candidate
		score     float64
	}
	ranked := lo.Map(candidates, func(c Candidate, _ int) scored {
		return scored{
			candidate: c,
			score:     matchr.JaroWinkler(target, textutil.NormalizeName(c.Name), false),
		}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	lines := lo.Map(ranked[:min(maxSuggestions, len(ranked))], func(s scored, _ int) string {
		return fmt.Sprintf("\n\t%s | %s", s.candidate.Name, s.candidate.CIK)
	})
	return ", closest matches:" + strings.Join(lines, "")
}

func (s *CrawlState) onFilingDetail(c Classification, meta requestMeta) Action {
	var action Action
	if c.PrimaryLink != nil {
		action.Requests = append(action.Requests, newRequest(c.PrimaryLink, ContinueParse, -1))
	}

	if meta.cont != ContinueDepth {
		if c.HoldingsLink != nil {
			action.Requests = append(action.Requests, newRequest(c.HoldingsLink, ContinueParse, -1))
		} else {
			action.Note = "filing detail has no information table"
		}
		return action
	}

	if !s.validSlot(meta.slot) {
		action.Note = fmt.Sprintf("filing detail for unknown depth slot %d", meta.slot)
		return action
	}
	if c.FilingDate != "" {
		s.slots[meta.slot].date = c.FilingDate
	}
	if c.HoldingsLink == nil {
		return s.dropBatch(meta.slot, "filing detail has no information table")
	}
	action.Requests = append(action.Requests, newRequest(c.HoldingsLink, ContinueDepth, meta.slot))
	return action
}

func (s *CrawlState) validSlot(i int) bool {
	return i >= 0 && i < len(s.slots)
}

func (s *CrawlState) onDepthReport(body []byte, i int) Action {
	if !s.validSlot(i) {
		return Action{Note: fmt.Sprintf("report for unknown depth slot %d", i)}
	}
	if s.slots[i].received {
		return Action{Note: fmt.Sprintf("depth slot %d already received", i)}
	}
	s.slots[i].body = body
	s.slots[i].received = true

	if s.Pending() > 0 {
		return Action{}
	}
	return s.emitBatch()
}

// Failed tells the state machine that the request behind meta could not be
// fetched. Losing any request of a depth batch drops the whole batch, other
// failures change nothing.
func (s *CrawlState) Failed(meta requestMeta) Action {
	if s.terminal != nil || meta.cont != ContinueDepth || !s.validSlot(meta.slot) {
		return Action{}
	}
	return s.dropBatch(meta.slot, "report could not be fetched")
}

func (s *CrawlState) dropBatch(i int, reason string) Action {
	return s.terminate(fmt.Errorf(
		"%w: report %d of %d: %s, dropping the batch",
		ErrCorrelation, i+1, len(s.slots), reason,
	))
}

// emitBatch delivers every report of a depth batch once all of them have
// been received, or none of them if any report cannot be paired with a
// filing date.
func (s *CrawlState) emitBatch() Action {
	documents := make([]Document, 0, len(s.slots))
	for i, sl := range s.slots {
		if !sl.received {
			return Action{}
		}
		if sl.date == "" {
			return s.dropBatch(i, "no filing date")
		}
		documents = append(documents, Document{
			Kind: HoldingsReport,
			Body: sl.body,
			CIK:  s.Query.CIK,
			Date: sl.date,
		})
	}
	return Action{Documents: documents}
}

// Pending returns how many reports of the depth batch are still in flight.
func (s *CrawlState) Pending() int {
	return lo.CountBy(s.slots, func(sl slot) bool {
		return !sl.received
	})
}

package edgar

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

var parseMeta = requestMeta{cont: ContinueParse, slot: -1}

func mustUrl(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func reportRows(t *testing.T, dates ...string) []ReportRow {
	rows := make([]ReportRow, len(dates))
	for i, date := range dates {
		rows[i] = ReportRow{
			Link: mustUrl(t, fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/123456/%d-index.htm", i)),
			Date: date,
		}
	}
	return rows
}

func detailPage(t *testing.T, n int, date string) Classification {
	return Classification{
		Kind:         FilingDetail,
		PrimaryLink:  mustUrl(t, fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/123456/%d/primary_doc.xml", n)),
		HoldingsLink: mustUrl(t, fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/123456/%d/infotable.xml", n)),
		FilingDate:   date,
	}
}

func holdingsPage(n int) Classification {
	return Classification{Kind: HoldingsDocument, Body: []byte(fmt.Sprintf("<informationTable>%d</informationTable>", n))}
}

func newTestState(t *testing.T, q EntityQuery, depth int) *CrawlState {
	state, err := NewCrawlState(q, depth)
	require.NoError(t, err)
	return state
}

func TestNewCrawlState(t *testing.T) {
	_, err := NewCrawlState(EntityQuery{}, 1)
	require.ErrorIs(t, err, ErrUserInput)
	_, err = NewCrawlState(EntityQuery{Name: "Acme"}, 0)
	require.ErrorIs(t, err, ErrUserInput)
}

func TestStateNoMatch(t *testing.T) {
	state := newTestState(t, EntityQuery{Name: "Totally Fake Fund LLC"}, 1)

	action := state.Next(Classification{Kind: NoMatch}, parseMeta)
	require.ErrorIs(t, action.Err, ErrNoMatch)
	require.Empty(t, action.Requests)
	require.Empty(t, action.Documents)
	require.ErrorIs(t, state.Terminal(), ErrNoMatch)

	// pages arriving after the end are ignored
	action = state.Next(Classification{Kind: FilingsList, Reports: reportRows(t, "2023-08-14")}, parseMeta)
	require.NoError(t, action.Err)
	require.Empty(t, action.Requests)
	require.NotEmpty(t, action.Note)
}

func TestStateNoReports(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456"}, 1)
	action := state.Next(Classification{Kind: FilingsList}, parseMeta)
	require.ErrorIs(t, action.Err, ErrNoReports)
}

func TestStateSingleReport(t *testing.T) {
	state := newTestState(t, EntityQuery{Name: "Acme Capital"}, 1)

	action := state.Next(Classification{
		Kind:       FilingsList,
		CompanyCIK: "0000123456",
		Reports:    reportRows(t, "2023-08-14", "2023-05-15"),
	}, parseMeta)
	require.NoError(t, action.Err)
	require.Len(t, action.Requests, 1)
	require.Equal(t, "https://www.sec.gov/Archives/edgar/data/123456/0-index.htm", action.Requests[0].Url.String())
	require.Equal(t, parseMeta, metaOf(action.Requests[0]))
	require.Equal(t, "0000123456", state.Query.CIK)
	require.Equal(t, "2023-08-14", state.Date)

	action = state.Next(detailPage(t, 0, "2023-08-15"), parseMeta)
	require.Len(t, action.Requests, 2)
	require.Equal(t, "https://www.sec.gov/Archives/edgar/data/123456/0/primary_doc.xml", action.Requests[0].Url.String())
	require.Equal(t, "https://www.sec.gov/Archives/edgar/data/123456/0/infotable.xml", action.Requests[1].Url.String())

	action = state.Next(Classification{Kind: PrimaryDocument, Body: []byte("primary")}, parseMeta)
	require.Equal(t, []Document{{Kind: SummaryDocument, Body: []byte("primary")}}, action.Documents)

	action = state.Next(holdingsPage(0), parseMeta)
	require.Equal(t, []Document{{
		Kind: HoldingsReport,
		Body: holdingsPage(0).Body,
		CIK:  "0000123456",
		Date: "2023-08-14",
	}}, action.Documents)
	require.NoError(t, state.Terminal())
}

func TestStateKeepsGivenCik(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456", Name: "Acme"}, 1)
	state.Next(Classification{
		Kind:       FilingsList,
		CompanyCIK: "0000123456",
		Reports:    reportRows(t, "2023-08-14"),
	}, parseMeta)
	require.Equal(t, "123456", state.Query.CIK)
}

func TestStateDepth(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "0000123456"}, 5)

	action := state.Next(Classification{
		Kind:    FilingsList,
		Reports: reportRows(t, "2023-08-14", "2023-05-15", "2023-02-14"),
	}, parseMeta)
	require.Len(t, action.Requests, 3)
	for i, req := range action.Requests {
		require.Equal(t, requestMeta{cont: ContinueDepth, slot: i}, metaOf(req))
	}
	require.Equal(t, 3, state.Pending())

	// a second listing does not start another batch
	again := state.Next(Classification{Kind: FilingsList, Reports: reportRows(t, "2023-08-14")}, parseMeta)
	require.Empty(t, again.Requests)
	require.NotEmpty(t, again.Note)

	for i := 0; i < 3; i++ {
		date := ""
		if i == 1 {
			date = "2023-05-16"
		}
		action = state.Next(detailPage(t, i, date), requestMeta{cont: ContinueDepth, slot: i})
		require.Len(t, action.Requests, 2)
		require.Equal(t, parseMeta, metaOf(action.Requests[0]))
		require.Equal(t, requestMeta{cont: ContinueDepth, slot: i}, metaOf(action.Requests[1]))
	}

	// reports arrive out of order and are held until the batch completes
	action = state.Next(holdingsPage(2), requestMeta{cont: ContinueDepth, slot: 2})
	require.Empty(t, action.Documents)
	action = state.Next(holdingsPage(0), requestMeta{cont: ContinueDepth, slot: 0})
	require.Empty(t, action.Documents)
	require.Equal(t, 1, state.Pending())

	action = state.Next(holdingsPage(1), requestMeta{cont: ContinueDepth, slot: 1})
	require.NoError(t, action.Err)
	require.Equal(t, []Document{
		{Kind: HoldingsReport, Body: holdingsPage(0).Body, CIK: "0000123456", Date: "2023-08-14"},
		{Kind: HoldingsReport, Body: holdingsPage(1).Body, CIK: "0000123456", Date: "2023-05-16"},
		{Kind: HoldingsReport, Body: holdingsPage(2).Body, CIK: "0000123456", Date: "2023-02-14"},
	}, action.Documents)
	require.Equal(t, 0, state.Pending())

	duplicate := state.Next(holdingsPage(1), requestMeta{cont: ContinueDepth, slot: 1})
	require.Empty(t, duplicate.Documents)
}

func TestStateDepthLimitsRows(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456"}, 2)
	action := state.Next(Classification{
		Kind:    FilingsList,
		Reports: reportRows(t, "2023-08-14", "2023-05-15", "2023-02-14"),
	}, parseMeta)
	require.Len(t, action.Requests, 2)
}

func TestStateDepthCorrelationFailure(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456"}, 2)
	state.Next(Classification{Kind: FilingsList, Reports: reportRows(t, "2023-08-14", "")}, parseMeta)

	for i := 0; i < 2; i++ {
		state.Next(detailPage(t, i, ""), requestMeta{cont: ContinueDepth, slot: i})
	}
	action := state.Next(holdingsPage(0), requestMeta{cont: ContinueDepth, slot: 0})
	require.Empty(t, action.Documents)

	action = state.Next(holdingsPage(1), requestMeta{cont: ContinueDepth, slot: 1})
	require.ErrorIs(t, action.Err, ErrCorrelation)
	require.Empty(t, action.Documents)
	require.ErrorIs(t, state.Terminal(), ErrCorrelation)
}

func TestStateDepthFailedSlot(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456"}, 3)
	state.Next(Classification{
		Kind:    FilingsList,
		Reports: reportRows(t, "2023-08-14", "2023-05-15", "2023-02-14"),
	}, parseMeta)

	action := state.Next(holdingsPage(0), requestMeta{cont: ContinueDepth, slot: 0})
	require.Empty(t, action.Documents)
	action = state.Next(holdingsPage(2), requestMeta{cont: ContinueDepth, slot: 2})
	require.Empty(t, action.Documents)

	// failures outside of a depth batch change nothing
	require.Equal(t, Action{}, state.Failed(parseMeta))
	require.NoError(t, state.Terminal())

	action = state.Failed(requestMeta{cont: ContinueDepth, slot: 1})
	require.ErrorIs(t, action.Err, ErrCorrelation)
	require.Empty(t, action.Documents)
	require.ErrorIs(t, state.Terminal(), ErrCorrelation)

	// the missing report showing up late does not revive the batch
	late := state.Next(holdingsPage(1), requestMeta{cont: ContinueDepth, slot: 1})
	require.NoError(t, late.Err)
	require.Empty(t, late.Documents)
}

func TestStateDepthDetailWithoutHoldings(t *testing.T) {
	state := newTestState(t, EntityQuery{CIK: "123456"}, 2)
	state.Next(Classification{Kind: FilingsList, Reports: reportRows(t, "2023-08-14", "2023-05-15")}, parseMeta)

	action := state.Next(holdingsPage(0), requestMeta{cont: ContinueDepth, slot: 0})
	require.Empty(t, action.Documents)

	detail := detailPage(t, 1, "2023-05-15")
	detail.HoldingsLink = nil
	action = state.Next(detail, requestMeta{cont: ContinueDepth, slot: 1})
	require.ErrorIs(t, action.Err, ErrCorrelation)
	require.Empty(t, action.Requests)
	require.Empty(t, action.Documents)
	require.ErrorIs(t, state.Terminal(), ErrCorrelation)
}

func TestStateAmbiguous(t *testing.T) {
	candidates := []Candidate{
		{CIK: "0000999001", Name: "ACME BRICK CO", Link: mustUrl(t, "https://www.sec.gov/a")},
		{CIK: "0000123456", Name: "ACME CAPITAL MANAGEMENT LLC", Link: mustUrl(t, "https://www.sec.gov/b")},
		{CIK: "0000999003", Name: "ACME CAPITAL PARTNERS LP", Link: mustUrl(t, "https://www.sec.gov/c")},
	}
	page := Classification{Kind: AmbiguousNameMatch, Candidates: candidates}

	state := newTestState(t, EntityQuery{Name: "Acme Capital Management"}, 1)
	action := state.Next(page, parseMeta)
	require.ErrorIs(t, action.Err, ErrUserInput)
	require.Contains(t, action.Err.Error(), "closest matches:\n\tACME CAPITAL MANAGEMENT LLC | 0000123456")

	state = newTestState(t, EntityQuery{Name: "Acme", CIK: "123456"}, 1)
	action = state.Next(page, parseMeta)
	require.NoError(t, action.Err)
	require.Len(t, action.Requests, 1)
	require.Equal(t, "https://www.sec.gov/b", action.Requests[0].Url.String())

	state = newTestState(t, EntityQuery{Name: "Acme", CIK: "777"}, 1)
	action = state.Next(page, parseMeta)
	require.ErrorIs(t, action.Err, ErrUserInput)
}

func TestStateUnrecognized(t *testing.T) {
	state := newTestState(t, EntityQuery{Name: "Acme"}, 1)
	action := state.Next(Classification{Kind: Unrecognized}, parseMeta)
	require.NoError(t, action.Err)
	require.Empty(t, action.Requests)
	require.NoError(t, state.Terminal())
}

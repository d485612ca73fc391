package edgar

import (
	"context"
	"net/url"
	"strings"

	"edgar13f/internal/fetch"
	"edgar13f/internal/filings"
	"edgar13f/lib/htmlutil"
	"edgar13f/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// PageKind is what a fetched page was recognized as.
type PageKind int

const (
	Unrecognized PageKind = iota
	NoMatch
	FilingsList
	AmbiguousNameMatch
	FilingDetail
	PrimaryDocument
	HoldingsDocument
)

func (k PageKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case FilingsList:
		return "filings_list"
	case AmbiguousNameMatch:
		return "ambiguous_name_match"
	case FilingDetail:
		return "filing_detail"
	case PrimaryDocument:
		return "primary_document"
	case HoldingsDocument:
		return "holdings_document"
	default:
		return "unrecognized"
	}
}

// ReportRow is a 13F-HR row of a filings list.
type ReportRow struct {
	Link *url.URL
	Date string
}

// Candidate is a row of an ambiguous company name listing.
type Candidate struct {
	CIK  string
	Name string
	Link *url.URL
}

// Classification is a page's kind along with what was extracted from it,
// only the fields of the matched kind are set.
type Classification struct {
	Kind PageKind

	// FilingsList
	CompanyCIK string
	Reports    []ReportRow

	// AmbiguousNameMatch
	Candidates []Candidate

	// FilingDetail
	PrimaryLink  *url.URL
	HoldingsLink *url.URL
	FilingDate   string

	// PrimaryDocument and HoldingsDocument
	Body []byte
}

const (
	primaryDocName = "primary_doc.xml"
	rootPrimary    = "edgarsubmission"
)

// Classify recognizes a page by its structure. The rules are evaluated in a
// fixed order and the first one that matches wins.
func Classify(ctx context.Context, res *fetch.Response, q EntityQuery) Classification {
	doc, err := res.Document()
	if err == nil {
		if isNoMatch(doc) {
			return Classification{Kind: NoMatch}
		}
		if c, ok := classifyFilingsList(ctx, res, doc, q); ok {
			return c
		}
		if c, ok := classifyAmbiguous(ctx, res, doc); ok {
			return c
		}
		if c, ok := classifyFilingDetail(ctx, res, doc); ok {
			return c
		}
	}

	root, isXml := filings.RootElement(res.Body)
	if (isXml && root == rootPrimary) || strings.Contains(res.Url.String(), primaryDocName) {
		return Classification{Kind: PrimaryDocument, Body: res.Body}
	}
	if res.IsXML() {
		return Classification{Kind: HoldingsDocument, Body: res.Body}
	}
	return Classification{Kind: Unrecognized}
}

func containsText(sel *goquery.Selection, text string) bool {
	found := false
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.Contains(htmlutil.SelectionText(s), text)
		return !found
	})
	return found
}

func isNoMatch(doc *goquery.Document) bool {
	return containsText(doc.Find("div#contentDiv > div"), "No matching") ||
		containsText(doc.Find("h1"), "No matching")
}

func pageTitle(doc *goquery.Document) *goquery.Selection {
	return doc.Find("div#headerBottom > div#PageTitle")
}

// firstLink returns the first anchor in cell with its href resolved against
// the page it was found on.
func firstLink(ctx context.Context, res *fetch.Response, cell *goquery.Selection) (htmlutil.Anchor, *url.URL, bool) {
	anchors := htmlutil.GetAnchors(ctx, nil, cell.Find("a"))
	if len(anchors) == 0 {
		return htmlutil.Anchor{}, nil, false
	}
	link, err := res.Resolve(anchors[0].Href)
	if err != nil {
		return htmlutil.Anchor{}, nil, false
	}
	return anchors[0], link, true
}

// cikParam returns the CIK query parameter of a link, if it has one.
func cikParam(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	for k, v := range u.Query() {
		if strings.EqualFold(k, "CIK") && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func classifyFilingsList(ctx context.Context, res *fetch.Response, doc *goquery.Document, q EntityQuery) (Classification, bool) {
	if !containsText(pageTitle(doc), "EDGAR Search Results") {
		return Classification{}, false
	}
	companyName := doc.Find("div#contentDiv span.companyName")
	if companyName.Length() == 0 {
		return Classification{}, false
	}

	matched := q.Name != "" && textutil.MatchName(htmlutil.SelectionText(companyName), q.Name)
	if !matched && q.CIK != "" {
		for _, a := range htmlutil.GetAnchors(ctx, nil, doc.Find("a")) {
			if textutil.SameIdentifier(cikParam(a.Href), q.CIK) {
				matched = true
				break
			}
		}
	}
	if !matched {
		return Classification{}, false
	}

	c := Classification{Kind: FilingsList}
	companyAnchors := htmlutil.GetAnchors(ctx, nil, companyName.Find("a"))
	if len(companyAnchors) > 0 {
		fields := strings.Fields(companyAnchors[0].Name)
		if len(fields) > 0 && isIdentifier(fields[0]) {
			c.CompanyCIK = fields[0]
		} else if cik := cikParam(companyAnchors[0].Href); cik != "" {
			c.CompanyCIK = cik
		}
	}

	doc.Find("div#seriesDiv table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children().Filter("td")
		if cells.Length() < 4 {
			return
		}
		form := htmlutil.SelectionText(cells.Eq(0))
		if !strings.Contains(form, "13F") || !strings.Contains(form, "HR") {
			return
		}
		_, link, ok := firstLink(ctx, res, cells.Eq(1))
		if !ok {
			return
		}
		c.Reports = append(c.Reports, ReportRow{
			Link: link,
			Date: htmlutil.SelectionText(cells.Eq(3)),
		})
	})
	return c, true
}

func classifyAmbiguous(ctx context.Context, res *fetch.Response, doc *goquery.Document) (Classification, bool) {
	if !containsText(doc.Find("div#contentDiv > span.companyMatch"), "Companies with names matching") {
		return Classification{}, false
	}

	c := Classification{Kind: AmbiguousNameMatch}
	doc.Find("div#seriesDiv table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children().Filter("td")
		if cells.Length() < 2 {
			return
		}
		anchor, link, ok := firstLink(ctx, res, cells.Eq(0))
		if !ok {
			return
		}
		c.Candidates = append(c.Candidates, Candidate{
			CIK:  anchor.Name,
			Name: htmlutil.SelectionText(cells.Eq(1)),
			Link: link,
		})
	})
	return c, true
}

func classifyFilingDetail(ctx context.Context, res *fetch.Response, doc *goquery.Document) (Classification, bool) {
	if !containsText(pageTitle(doc), "Filing Detail") || !strings.Contains(res.Url.String(), "index.htm") {
		return Classification{}, false
	}

	c := Classification{Kind: FilingDetail}
	doc.Find("div#contentDiv table.tableFile tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children().Filter("td")
		if cells.Length() < 4 {
			return
		}
		anchor, link, ok := firstLink(ctx, res, cells.Eq(2))
		if !ok {
			return
		}
		name := anchor.Name
		description := strings.ToUpper(htmlutil.SelectionText(cells.Eq(3)))

		if c.PrimaryLink == nil && name == primaryDocName {
			c.PrimaryLink = link
			return
		}
		if c.HoldingsLink == nil &&
			strings.Contains(name, ".xml") &&
			strings.Contains(description, "INFORMATION TABLE") {
			c.HoldingsLink = link
		}
	})

	doc.Find("div#contentDiv div.infoHead").EachWithBreak(func(_ int, head *goquery.Selection) bool {
		if !strings.Contains(htmlutil.SelectionText(head), "Filing Date") {
			return true
		}
		c.FilingDate = htmlutil.SelectionText(head.NextAllFiltered("div").First())
		return false
	})
	return c, true
}

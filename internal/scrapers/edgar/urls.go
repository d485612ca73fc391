package edgar

import (
	"fmt"
	"net/url"
)

// DefaultBaseUrl is the public EDGAR host.
const DefaultBaseUrl = "https://www.sec.gov"

const searchPath = "/cgi-bin/browse-edgar"

// SearchUrl is where a crawl for q starts, the CIK template is preferred over
// the company name template when both are known.
func SearchUrl(base *url.URL, q EntityQuery) (*url.URL, error) {
	var rawQuery string
	switch {
	case q.CIK != "":
		rawQuery = fmt.Sprintf(
			"action=getcompany&CIK=%s&type=&dateb=&owner=exclude&count=100",
			url.QueryEscape(q.CIK),
		)
	case q.Name != "":
		rawQuery = fmt.Sprintf(
			"company=%s&owner=exclude&action=getcompany",
			url.QueryEscape(q.Name),
		)
	default:
		return nil, fmt.Errorf("%w: empty entity", ErrUserInput)
	}

	out := base.ResolveReference(&url.URL{Path: searchPath})
	out.RawQuery = rawQuery
	return out, nil
}

package devenv

// LiveCrawlConfig configures the tests that talk to the real EDGAR index,
// they are skipped unless <dev_state>/edgar_live.json5 exists.
type LiveCrawlConfig struct {
	// UserAgent must identify you, sec.gov rejects anonymous clients.
	UserAgent string `json:"user_agent"`
	Entity    string `json:"entity"`
	Depth     int    `json:"depth"`
}

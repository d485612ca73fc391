package tabular

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"edgar13f/internal/assert"
	"edgar13f/internal/components/telemetry"
)

const (
	report_store_holdings = "store.holdings"
	report_store_summary  = "store.summary"
)

// SummaryFilename is the dataset every primary document is merged into.
const SummaryFilename = "search_summary.tsv"

// HoldingsFilename is the file a holdings document for cik filed on date is
// written to, "0001067983", "2024-02-14" gives
// "0001067983_13f_holdings_2024_02_14.tsv".
func HoldingsFilename(cik, date string) string {
	name := fmt.Sprintf(
		"%s_13f_holdings_%s.tsv",
		strings.TrimSpace(cik),
		strings.ReplaceAll(strings.TrimSpace(date), "-", "_"),
	)
	return strings.ToLower(name)
}

// Store persists datasets under a single output directory. Load, merge and
// rewrite of the same file never interleave between goroutines.
type Store struct {
	dir string
	tel telemetry.API

	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates dir (and its parents) if it does not exist yet.
func NewStore(dir string, tel telemetry.API) (*Store, error) {
	assert.NotEmptyStr(dir)
	assert.NotNil(tel)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("%w: create output directory %s: %w", ErrPersistence, dir, err)
	}
	return &Store{
		dir:   dir,
		tel:   tel,
		locks: map[string]*sync.Mutex{},
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *Store) lock(path string) func() {
	s.mutex.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	s.mutex.Unlock()

	l.Lock()
	return l.Unlock
}

// WriteHoldings writes records into a brand new holdings file, replacing any
// file of the same name, and returns its path.
func (s *Store) WriteHoldings(ctx context.Context, cik, date string, records []Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.Path(HoldingsFilename(cik, date))
	unlock := s.lock(path)
	defer unlock()

	err := Save(path, NewAppendOnly(records))
	if err != nil {
		s.tel.ReportBroken(report_store_holdings, err, cik, date)
		return "", err
	}
	return path, nil
}

// MergeSummary loads the summary dataset, upserts the record by SummaryKey
// and rewrites the file. It reports whether an existing record was replaced.
func (s *Store) MergeSummary(ctx context.Context, record Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path := s.Path(SummaryFilename)
	unlock := s.lock(path)
	defer unlock()

	d, err := Load(path)
	if err != nil {
		s.tel.ReportBroken(report_store_summary, err)
		return false, err
	}
	replaced := d.Upsert(record, SummaryKey)
	err = Save(path, d)
	if err != nil {
		s.tel.ReportBroken(report_store_summary, err)
		return false, err
	}
	return replaced, nil
}

package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"edgar13f/internal/assert"
	"edgar13f/internal/components/chrono"

	"github.com/PuerkitoBio/purell"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

const cacheSchema = `
create table if not exists page (
	key text primary key,
	url text not null,
	status integer not null,
	content_type text not null,
	body blob not null,
	expires_at integer not null
);
create index if not exists page_expires_at on page(expires_at);
`

// CachedPage is what the page cache remembers of a response.
type CachedPage struct {
	Url         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// PageCache keeps successful responses in sqlite so that repeated crawls of
// the same entity do not hit the index again until the entries expire.
type PageCache struct {
	db    *sql.DB
	ttl   time.Duration
	clock chrono.API
}

// OpenPageCache opens (or creates) the sqlite database at path.
func OpenPageCache(path string, ttl time.Duration, clock chrono.API) (*PageCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	cache, err := NewPageCache(db, ttl, clock)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func NewPageCache(db *sql.DB, ttl time.Duration, clock chrono.API) (*PageCache, error) {
	assert.NotNil(db)
	assert.NotNil(clock)

	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	_, err := db.Exec(cacheSchema)
	if err != nil {
		return nil, fmt.Errorf("create page cache schema: %w", err)
	}
	return &PageCache{db: db, ttl: ttl, clock: clock}, nil
}

func (c *PageCache) Close() error {
	return c.db.Close()
}

func cacheKey(u *url.URL) string {
	return purell.NormalizeURL(
		u,
		purell.FlagsSafe|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}

// Get returns the cached page for u, ok is false on a miss or an expired entry.
func (c *PageCache) Get(ctx context.Context, u *url.URL) (page CachedPage, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "PageCache.Get")
	defer span.End()

	key := cacheKey(u)
	span.SetAttributes(attribute.String("cache_key", key))

	var expiresAt int64
	row := c.db.QueryRowContext(
		ctx,
		"select url, status, content_type, body, expires_at from page where key = ?",
		key,
	)
	err = row.Scan(&page.Url, &page.StatusCode, &page.ContentType, &page.Body, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CachedPage{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cached page")
		return CachedPage{}, false, err
	}

	if c.clock.Now().Unix() >= expiresAt {
		span.AddEvent("delete expired cache key")
		_, err = c.db.ExecContext(ctx, "delete from page where key = ?", key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired page")
			return CachedPage{}, false, err
		}
		return CachedPage{}, false, nil
	}

	span.SetAttributes(attribute.Int("content_length", len(page.Body)))
	return page, true, nil
}

// Set stores a page for u, replacing any previous entry.
func (c *PageCache) Set(ctx context.Context, u *url.URL, page CachedPage) error {
	ctx, span := tracer.Start(ctx, "PageCache.Set")
	defer span.End()

	key := cacheKey(u)
	span.SetAttributes(attribute.String("cache_key", key))

	_, err := c.db.ExecContext(
		ctx,
		`insert into page (key, url, status, content_type, body, expires_at)
		values (?, ?, ?, ?, ?, ?)
		on conflict (key) do update set
			url = excluded.url,
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			expires_at = excluded.expires_at`,
		key,
		page.Url,
		page.StatusCode,
		page.ContentType,
		page.Body,
		c.clock.Now().Add(c.ttl).Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cached page")
		return err
	}
	return nil
}

// Prune deletes every expired entry and returns how many there were.
func (c *PageCache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "delete from page where expires_at <= ?", c.clock.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

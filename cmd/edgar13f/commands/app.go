package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	devenv "edgar13f/dev/env"
	"edgar13f/internal/components/chrono"
	"edgar13f/internal/components/telemetry"
	"edgar13f/internal/fetch"
	"edgar13f/internal/filings"
	"edgar13f/internal/scrapers/edgar"
	"edgar13f/internal/tabular"
	"edgar13f/lib/restyutil"
)

// app is everything a crawl needs, one app may run many sessions at once.
type app struct {
	config   Config
	base     *url.URL
	tel      telemetry.API
	store    *tabular.Store
	pipeline *filings.Pipeline
	engine   *fetch.Engine
	cache    *fetch.PageCache
}

// newApp wires the engine, the page cache and the output store from config.
// The output directory is created here, failing to do so is returned as
// tabular.ErrPersistence.
func newApp(config Config, dumpDir string, tel telemetry.API) (*app, error) {
	base, err := config.baseUrl()
	if err != nil {
		return nil, err
	}

	store, err := tabular.NewStore(config.OutputDir, tel)
	if err != nil {
		return nil, err
	}

	opts := config.engineOptions()

	var cache *fetch.PageCache
	if config.Cache.Path != "" {
		path, err := devenv.ResolvePath(config.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve cache path: %w", err)
		}
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return nil, err
		}
		cache, err = fetch.OpenPageCache(path, config.cacheTtl(), clock)
		if err != nil {
			return nil, fmt.Errorf("open page cache: %w", err)
		}
		opts.Cache = cache
		slog.Debug("using page cache", "path", path, "ttl", config.cacheTtl())
	}

	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = output
	}

	engine, err := fetch.NewEngine(opts, tel)
	if err != nil {
		return nil, err
	}

	return &app{
		config:   config,
		base:     base,
		tel:      tel,
		store:    store,
		pipeline: filings.NewPipeline(store, filings.Flattener{Strict: config.StrictFlatten}, tel),
		engine:   engine,
		cache:    cache,
	}, nil
}

func (a *app) Close() {
	if a.cache == nil {
		return
	}
	pruned, err := a.cache.Prune(context.Background())
	if err != nil {
		slog.Warn("failed to prune page cache", "err", err)
	} else if pruned > 0 {
		slog.Debug("pruned page cache", "entries", pruned)
	}
	err = a.cache.Close()
	if err != nil {
		slog.Warn("failed to close page cache", "err", err)
	}
}

// crawlResult is the outcome of a single session.
type crawlResult struct {
	Query   edgar.EntityQuery
	Session string
	Stats   edgar.Stats
	Err     error
}

func (a *app) crawl(ctx context.Context, q edgar.EntityQuery, depth int) crawlResult {
	session, err := edgar.NewSession(q, depth, a.base, a.pipeline, a.tel)
	if err != nil {
		return crawlResult{Query: q, Err: err}
	}
	slog.Info("crawling", "entity", q.String(), "depth", depth, "session", session.Id)

	err = edgar.Crawl(ctx, a.engine, session)
	return crawlResult{
		Query:   session.Query(),
		Session: session.Id,
		Stats:   session.Stats(),
		Err:     err,
	}
}

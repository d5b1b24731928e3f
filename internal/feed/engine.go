// Package feed merges occurrence sources into one deduplicated,
// newest-first, cursor-paginated stream.
//
// Sources are queried concurrently; the engine waits for all of them before
// merging. It holds no state between requests.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/observ-ing/core-sub000/internal/cursor"
	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/metrics"
)

// Policy selects how a source failure affects the whole request.
type Policy int

const (
	// FailClosed fails the request with domain.ErrSourceUnavailable when any
	// source fails.
	FailClosed Policy = iota

	// FailOpen logs the failure and treats the failed source as empty.
	FailOpen
)

func (p Policy) String() string {
	if p == FailOpen {
		return "fail-open"
	}
	return "fail-closed"
}

// Request describes one page of one feed.
type Request struct {
	// Feed names the feed; cursors minted for one feed are rejected by another.
	Feed    string
	Sources []Source
	Policy  Policy

	// Cursor is the opaque NextCursor of the previous page, or empty.
	Cursor string
	Limit  int

	// Since is the look-back bound for a traversal's first page; zero means
	// unbounded. Later pages keep the bound carried by their cursor.
	Since time.Time
}

// Engine composes feed pages.
type Engine struct {
	logger        *slog.Logger
	metrics       *metrics.Feed
	tracer        trace.Tracer
	sourceTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for fail-open source failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Feed) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSourceTimeout bounds each source fetch. Zero disables the bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(e *Engine) { e.sourceTimeout = d }
}

// NewEngine constructs an Engine. Without options it logs to slog.Default,
// records no metrics, and applies no per-source timeout.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		tracer: otel.Tracer("github.com/observ-ing/core-sub000/internal/feed"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compose returns one page of the feed described by req.
//
// Every source is asked for up to Limit occurrences strictly after the
// cursor position and no older than the traversal's look-back bound. The lists are merged newest first, deduplicated by
// occurrence id, and truncated to Limit. NextCursor is empty only when every
// source is exhausted and nothing was truncated.
//
// Returns an error wrapping domain.ErrInvalidCursor for a malformed or
// foreign cursor, and domain.ErrSourceUnavailable when a source fails under
// FailClosed. A cancelled ctx returns ctx.Err() under either policy.
func (e *Engine) Compose(ctx context.Context, req Request) (domain.FeedPage, error) {
	q := domain.PageQuery{Since: req.Since, Limit: req.Limit}
	if req.Cursor != "" {
		pos, err := cursor.Decode(req.Feed, req.Cursor)
		if err != nil {
			return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w", err)
		}
		q.After, q.Since = &pos.After, pos.Since
	}
	if q.Limit < 1 {
		q.Limit = domain.DefaultLimit
	}

	if len(req.Sources) == 0 {
		e.metrics.ObservePageItems(req.Feed, 0)
		return domain.FeedPage{Items: []domain.FeedItem{}}, nil
	}

	pages, err := e.fetchAll(ctx, req, q)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w", err)
	}

	lists := make([]tagged, len(pages))
	exhausted := true
	for i, p := range pages {
		lists[i] = tagged{tag: req.Sources[i].Tag(), occs: strictlyAfter(p.Occurrences, q.After)}
		exhausted = exhausted && p.Exhausted
	}

	items := mergeLists(lists)
	truncated := len(items) > q.Limit
	if truncated {
		items = items[:q.Limit]
	}

	page := domain.FeedPage{Items: items}
	if len(items) > 0 && (truncated || !exhausted) {
		next, err := cursor.Encode(req.Feed, cursor.Position{
			After: domain.KeyOf(items[len(items)-1].Occurrence),
			Since: q.Since,
		})
		if err != nil {
			return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w", err)
		}
		page.NextCursor = next
	}

	e.metrics.ObservePageItems(req.Feed, len(items))
	return page, nil
}

// fetchAll queries every source concurrently. Results are indexed like
// req.Sources; a source dropped under FailOpen yields an exhausted empty page.
func (e *Engine) fetchAll(ctx context.Context, req Request, q domain.PageQuery) ([]Page, error) {
	pages := make([]Page, len(req.Sources))
	g, gctx := errgroup.WithContext(ctx)

	for i, src := range req.Sources {
		g.Go(func() error {
			page, err := e.fetchOne(gctx, src, q)
			if err == nil {
				pages[i] = page
				return nil
			}

			tag := string(src.Tag())
			if req.Policy == FailOpen && ctx.Err() == nil {
				e.metrics.IncSourceFailure(tag, "dropped")
				e.logger.WarnContext(ctx, "feed source failed; continuing without it",
					"feed", req.Feed,
					"source", tag,
					"error", err,
				)
				pages[i] = Page{Exhausted: true}
				return nil
			}

			e.metrics.IncSourceFailure(tag, "failed")
			return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, tag, err)
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// fetchOne runs a single source fetch inside its own span and timeout.
func (e *Engine) fetchOne(ctx context.Context, src Source, q domain.PageQuery) (Page, error) {
	tag := string(src.Tag())
	ctx, span := e.tracer.Start(ctx, "feed.source "+tag, trace.WithAttributes(
		attribute.String("feed.source", tag),
		attribute.Int("feed.limit", q.Limit),
	))
	defer span.End()

	if e.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.sourceTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := src.FetchPage(ctx, q)
	e.metrics.ObserveSourceLatency(tag, time.Since(start))

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			span.SetAttributes(attribute.Bool("feed.timeout", true))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}

	span.SetAttributes(attribute.Int("feed.items", len(page.Occurrences)))
	return page, nil
}

// strictlyAfter drops any occurrence a source returned at or before the
// cursor position.
func strictlyAfter(occs []domain.Occurrence, after *domain.FeedKey) []domain.Occurrence {
	if after == nil {
		return occs
	}
	out := occs[:0:0]
	for _, o := range occs {
		if after.Before(domain.KeyOf(o)) {
			out = append(out, o)
		}
	}
	return out
}

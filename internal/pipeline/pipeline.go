// Package pipeline composes fetch, normalization and reconciliation into
// collection runs.
//
// A single query runs sequentially (fetch fully, then normalize, then
// reconcile); independent queries of a batch run concurrently on a bounded
// pool. Subsystem failures become structured run summaries, never
// panics or aborts: one failing query must not take its siblings down.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/ad-library-intel/internal/core/adlibrary"
	"github.com/lueurxax/ad-library-intel/internal/core/domain"
	"github.com/lueurxax/ad-library-intel/internal/normalize"
	"github.com/lueurxax/ad-library-intel/internal/observability"
)

const (
	defaultQueryLimit = 100

	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFailed   = "failed"

	outcomeInserted  = "inserted"
	outcomeUpdated   = "updated"
	outcomeUnchanged = "unchanged"
)

// Fetcher retrieves raw records from the upstream archive.
type Fetcher interface {
	SearchAds(ctx context.Context, p adlibrary.SearchParams, limit int) ([]adlibrary.RawAd, error)
	PageAds(ctx context.Context, pageID string, limit int) ([]adlibrary.RawAd, error)
}

// Store persists reconciled ads and run history.
type Store interface {
	ReconcileAds(ctx context.Context, ads []domain.Ad, keyword string) (domain.ReconcileSummary, error)
	SaveRun(ctx context.Context, summary domain.RunSummary) error
}

// Pipeline threads fetcher, normalizer and store together per query.
type Pipeline struct {
	fetcher Fetcher
	store   Store
	logger  *zerolog.Logger
	now     func() time.Time
}

// New creates a Pipeline.
func New(fetcher Fetcher, store Store, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one collection query and returns its summary. Upstream
// exhaustion and partial fetches surface as a degraded-but-successful run:
// whatever was fetched is still normalized and reconciled, and the error
// is recorded on the summary instead of returned.
func (p *Pipeline) Run(ctx context.Context, query domain.Query) domain.RunSummary {
	if query.Limit <= 0 {
		query.Limit = defaultQueryLimit
	}

	started := p.now()
	summary := domain.RunSummary{Query: query, StartedAt: started}

	raws, fetchErr := p.fetch(ctx, query)

	if query.Kind == domain.QueryCompetitor {
		raws = filterByPageName(raws, query.Term)
	}

	summary.Fetched = len(raws)

	var errs []string
	if fetchErr != nil {
		errs = append(errs, fetchErr.Error())
	}

	if len(raws) > 0 {
		ads := normalize.Batch(raws, started)

		rec, err := p.store.ReconcileAds(ctx, ads, query.Keyword())
		summary.Inserted = rec.Inserted
		summary.Updated = rec.Updated
		summary.Unchanged = rec.Unchanged

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	summary.Error = strings.Join(errs, "; ")
	summary.FinishedAt = p.now()

	p.observe(ctx, summary, fetchErr != nil)

	return summary
}

// RunBatch executes independent queries on a bounded worker pool and
// returns their summaries in query order. The shared hourly limiter inside
// the fetcher is the only global synchronization point.
func (p *Pipeline) RunBatch(ctx context.Context, queries []domain.Query, concurrency int) []domain.RunSummary {
	if concurrency <= 0 {
		concurrency = 1
	}

	summaries := make([]domain.RunSummary, len(queries))

	var group errgroup.Group

	group.SetLimit(concurrency)

	for i, query := range queries {
		group.Go(func() error {
			summaries[i] = p.Run(ctx, query)
			return nil
		})
	}

	// Run never returns an error; the group is used for bounded fan-out.
	_ = group.Wait()

	return summaries
}

// fetch dispatches to the upstream call matching the query kind.
func (p *Pipeline) fetch(ctx context.Context, query domain.Query) ([]adlibrary.RawAd, error) {
	if query.Kind == domain.QueryPage {
		return p.fetcher.PageAds(ctx, query.Term, query.Limit)
	}

	return p.fetcher.SearchAds(ctx, adlibrary.SearchParams{
		SearchTerms:  query.Term,
		Countries:    query.Countries,
		Platforms:    query.Platforms,
		ActiveStatus: query.ActiveStatus,
	}, query.Limit)
}

// observe records run metrics, history and the run log line.
func (p *Pipeline) observe(ctx context.Context, summary domain.RunSummary, degraded bool) {
	status := statusOK

	switch {
	case summary.Error != "" && !degraded:
		status = statusFailed
	case degraded:
		status = statusDegraded
	}

	observability.CollectionRuns.WithLabelValues(status).Inc()
	observability.RunDurationSeconds.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	observability.RunFetchedRecords.Observe(float64(summary.Fetched))
	observability.AdsCollected.WithLabelValues(outcomeInserted).Add(float64(summary.Inserted))
	observability.AdsCollected.WithLabelValues(outcomeUpdated).Add(float64(summary.Updated))
	observability.AdsCollected.WithLabelValues(outcomeUnchanged).Add(float64(summary.Unchanged))

	if err := p.store.SaveRun(ctx, summary); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record collection run")
	}

	event := p.logger.Info()
	if status != statusOK {
		event = p.logger.Warn()
	}

	event.
		Str("kind", string(summary.Query.Kind)).
		Str("term", summary.Query.Term).
		Str("status", status).
		Int("fetched", summary.Fetched).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Msg("collection run finished")
}

// filterByPageName keeps only records whose page name matches exactly.
// Competitor searches go through keyword search, which also returns ads
// merely mentioning the page name.
func filterByPageName(raws []adlibrary.RawAd, pageName string) []adlibrary.RawAd {
	filtered := raws[:0:0]

	for _, raw := range raws {
		if raw.PageName == pageName {
			filtered = append(filtered, raw)
		}
	}

	return filtered
}

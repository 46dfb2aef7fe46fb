package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/ad-library-intel/internal/core/domain"
	"github.com/lueurxax/ad-library-intel/internal/observability"
)

// adColumns is the canonical column list shared by every ad read query.
const adColumns = `ad_id, page_id, page_name, start_date, end_date, is_active,
	days_active, platforms, snapshot_url, body, headline, description,
	link_caption, full_text, text_length, has_emoji, has_hashtags, hashtags,
	mentions, cta_detected, search_keyword, collected_at`

// upsertAdSQL reconciles one incoming ad against storage in a single
// statement, which keeps the operation atomic per ad_id under concurrent
// runs. The conditional DO UPDATE enforces the monotonic transition: only
// active -> inactive is ever applied, and search_keyword / collected_at are
// never touched after the first insert. A returned row with xmax = 0 is a
// fresh insert, any other returned row is an update, and no row back means
// the stored record was left untouched.
const upsertAdSQL = `
INSERT INTO ads (
	ad_id, page_id, page_name, start_date, end_date, is_active, days_active,
	platforms, snapshot_url, body, headline, description, link_caption,
	full_text, text_length, has_emoji, has_hashtags, hashtags, mentions,
	cta_detected, search_keyword, collected_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, now()
)
ON CONFLICT (ad_id) DO UPDATE SET
	is_active   = EXCLUDED.is_active,
	end_date    = EXCLUDED.end_date,
	days_active = EXCLUDED.days_active
WHERE ads.is_active AND NOT EXCLUDED.is_active
RETURNING (xmax = 0) AS inserted`

const storedActiveSQL = `SELECT is_active FROM ads WHERE ad_id = $1`

// ReconcileAds inserts or selectively updates a batch of normalized ads.
// Each incoming record is reconciled by its natural key: absent records are
// inserted with the given search keyword stamped once; present records are
// updated only when the incoming record reports a stop the stored one
// lacks. An incoming "still active" signal for a stored inactive ad is
// treated as stale and ignored.
//
// A record that fails to reconcile is skipped, not fatal: the rest of the
// batch still lands, and the per-record errors come back joined.
func (db *DB) ReconcileAds(ctx context.Context, ads []domain.Ad, keyword string) (domain.ReconcileSummary, error) {
	var summary domain.ReconcileSummary

	var errs []error

	for i := range ads {
		ad := &ads[i]

		var inserted bool

		err := db.Pool.QueryRow(ctx, upsertAdSQL,
			ad.AdID,
			ad.PageID,
			ad.PageName,
			toTimestamptzPtr(ad.StartDate),
			toTimestamptzPtr(ad.EndDate),
			ad.IsActive,
			toInt4Ptr(ad.DaysActive),
			ad.Platforms,
			ad.SnapshotURL,
			toTextPtr(ad.Body),
			toTextPtr(ad.Headline),
			toTextPtr(ad.Description),
			toTextPtr(ad.LinkCaption),
			ad.FullText,
			ad.TextLength,
			ad.HasEmoji,
			ad.HasHashtags,
			ad.Hashtags,
			ad.Mentions,
			toTextPtr(ad.CTADetected),
			keyword,
		).Scan(&inserted)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			summary.Unchanged++

			db.noteStaleSignal(ctx, ad)
		case err != nil:
			errs = append(errs, fmt.Errorf("reconcile ad %s: %w", ad.AdID, err))
		case inserted:
			summary.Inserted++
		default:
			summary.Updated++
		}
	}

	return summary, errors.Join(errs...)
}

// noteStaleSignal checks whether an untouched record was an ignored
// inactive -> active signal and counts it. The monotonic rule assumes a
// stopped ad stays stopped; the counter keeps genuine upstream
// reactivations observable instead of silently discarded.
func (db *DB) noteStaleSignal(ctx context.Context, ad *domain.Ad) {
	if !ad.IsActive {
		return
	}

	var storedActive bool
	if err := db.Pool.QueryRow(ctx, storedActiveSQL, ad.AdID).Scan(&storedActive); err != nil {
		return
	}

	if !storedActive {
		observability.ReactivationSignals.Inc()

		db.Logger.Debug().
			Str("ad_id", ad.AdID).
			Msg("ignored reactivation signal for stopped ad")
	}
}

// AdsByKeyword returns all ads first collected under the given keyword.
func (db *DB) AdsByKeyword(ctx context.Context, keyword string) ([]domain.Ad, error) {
	return db.queryAds(ctx,
		`SELECT `+adColumns+` FROM ads WHERE search_keyword = $1 ORDER BY collected_at`, keyword)
}

// AdsByPageName returns all ads of a page by its display name.
func (db *DB) AdsByPageName(ctx context.Context, pageName string) ([]domain.Ad, error) {
	return db.queryAds(ctx,
		`SELECT `+adColumns+` FROM ads WHERE page_name = $1 ORDER BY collected_at`, pageName)
}

// AdsByPageID returns all ads of a page by its vendor page ID.
func (db *DB) AdsByPageID(ctx context.Context, pageID string) ([]domain.Ad, error) {
	return db.queryAds(ctx,
		`SELECT `+adColumns+` FROM ads WHERE page_id = $1 ORDER BY collected_at`, pageID)
}

// ActiveAds returns all currently active ads.
func (db *DB) ActiveAds(ctx context.Context) ([]domain.Ad, error) {
	return db.queryAds(ctx,
		`SELECT ` + adColumns + ` FROM ads WHERE is_active ORDER BY collected_at`)
}

// TopPerformers returns ads that ran at least minDays, longest-running
// first. Longevity is the main performance signal available from the
// archive.
func (db *DB) TopPerformers(ctx context.Context, minDays, limit int) ([]domain.Ad, error) {
	return db.queryAds(ctx,
		`SELECT `+adColumns+` FROM ads
		 WHERE days_active >= $1
		 ORDER BY days_active DESC
		 LIMIT $2`, minDays, limit)
}

// CTACount pairs a detected call-to-action with its frequency.
type CTACount struct {
	CTA   string
	Count int64
}

// CTACounts returns detected call-to-action frequencies, most common first.
func (db *DB) CTACounts(ctx context.Context) ([]CTACount, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT cta_detected, count(*) FROM ads
		 WHERE cta_detected IS NOT NULL
		 GROUP BY cta_detected
		 ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query cta counts: %w", err)
	}
	defer rows.Close()

	var counts []CTACount

	for rows.Next() {
		var c CTACount
		if err := rows.Scan(&c.CTA, &c.Count); err != nil {
			return nil, fmt.Errorf("scan cta count: %w", err)
		}

		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// PageSummary is a per-page rollup of the stored corpus.
type PageSummary struct {
	PageName      string
	TotalAds      int64
	ActiveAds     int64
	AvgDaysActive float64
}

// PageSummaries returns per-page rollups, busiest pages first.
func (db *DB) PageSummaries(ctx context.Context, limit int) ([]PageSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT page_name,
		        count(*),
		        count(*) FILTER (WHERE is_active),
		        coalesce(avg(days_active), 0)
		 FROM ads
		 GROUP BY page_name
		 ORDER BY count(*) DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query page summaries: %w", err)
	}
	defer rows.Close()

	var summaries []PageSummary

	for rows.Next() {
		var s PageSummary
		if err := rows.Scan(&s.PageName, &s.TotalAds, &s.ActiveAds, &s.AvgDaysActive); err != nil {
			return nil, fmt.Errorf("scan page summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetStats returns aggregate counts over the stored corpus.
func (db *DB) GetStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	err := db.Pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE is_active),
		        count(*) FILTER (WHERE NOT is_active),
		        count(DISTINCT page_name)
		 FROM ads`).
		Scan(&stats.TotalAds, &stats.ActiveAds, &stats.InactiveAds, &stats.UniquePages)
	if err != nil {
		return stats, fmt.Errorf("query stats: %w", err)
	}

	return stats, nil
}

// queryAds runs an ad query and scans the canonical column list.
func (db *DB) queryAds(ctx context.Context, sql string, args ...interface{}) ([]domain.Ad, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query ads: %w", err)
	}
	defer rows.Close()

	var ads []domain.Ad

	for rows.Next() {
		var ad domain.Ad

		if err := rows.Scan(
			&ad.AdID,
			&ad.PageID,
			&ad.PageName,
			&ad.StartDate,
			&ad.EndDate,
			&ad.IsActive,
			&ad.DaysActive,
			&ad.Platforms,
			&ad.SnapshotURL,
			&ad.Body,
			&ad.Headline,
			&ad.Description,
			&ad.LinkCaption,
			&ad.FullText,
			&ad.TextLength,
			&ad.HasEmoji,
			&ad.HasHashtags,
			&ad.Hashtags,
			&ad.Mentions,
			&ad.CTADetected,
			&ad.SearchKeyword,
			&ad.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}

		ads = append(ads, ad)
	}

	return ads, rows.Err()
}

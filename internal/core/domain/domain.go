// Package domain defines the entities shared across the collection pipeline.
package domain

import "time"

// Publisher platform tags as the ad archive reports them.
const (
	PlatformFacebook        = "facebook"
	PlatformInstagram       = "instagram"
	PlatformMessenger       = "messenger"
	PlatformAudienceNetwork = "audience_network"
)

// Ad active status filter values accepted by the archive endpoint.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusAll      = "ALL"
)

// Ad is the persistent advertisement record, keyed by the vendor ad ID.
//
// Derived fields (FullText, TextLength, HasEmoji, Hashtags, Mentions,
// CTADetected, IsActive, DaysActive) are computed once at normalization time.
// SearchKeyword and CollectedAt are stamped on first insert and never
// mutated by later reconciliation.
type Ad struct {
	AdID        string
	PageID      string
	PageName    string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    bool
	DaysActive  *int
	Platforms   []string
	SnapshotURL string

	Body        *string
	Headline    *string
	Description *string
	LinkCaption *string

	FullText    string
	TextLength  int
	HasEmoji    bool
	HasHashtags bool
	Hashtags    []string
	Mentions    []string
	CTADetected *string

	SearchKeyword string
	CollectedAt   time.Time
}

// QueryKind selects how a collection query addresses the upstream archive.
type QueryKind string

const (
	// QuerySearch searches the archive by keyword.
	QuerySearch QueryKind = "search"
	// QueryPage lists the archive of a single page by its ID.
	QueryPage QueryKind = "page"
	// QueryCompetitor searches by page name and keeps exact page matches only.
	QueryCompetitor QueryKind = "competitor"
)

// Query describes one logical collection unit: a keyword search, a page
// archive listing, or a competitor page search, plus upstream filters.
type Query struct {
	Kind         QueryKind
	Term         string
	Countries    []string
	Platforms    []string
	ActiveStatus string
	Limit        int
}

// Keyword returns the search_keyword value stamped on ads produced by q.
func (q Query) Keyword() string {
	if q.Kind == QueryCompetitor {
		return "competitor:" + q.Term
	}

	return q.Term
}

// ReconcileSummary reports the outcome of reconciling one batch of ads.
type ReconcileSummary struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// RunSummary is the non-throwing result of a single pipeline run.
// Error holds the degraded-fetch or storage failure message, empty on a
// clean run; partial results still carry their counts.
type RunSummary struct {
	Query      Query
	Fetched    int
	Inserted   int
	Updated    int
	Unchanged  int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Stats aggregates the stored corpus for health endpoints and reports.
type Stats struct {
	TotalAds    int64
	ActiveAds   int64
	InactiveAds int64
	UniquePages int64
}

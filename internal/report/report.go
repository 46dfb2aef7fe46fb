// Package report builds the consolidated intelligence report over the
// collected ad corpus.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/ad-library-intel/internal/core/domain"
	"github.com/lueurxax/ad-library-intel/internal/storage"
)

const (
	separatorWidth = 80

	topPerformerMinDays = 30
	topPerformerCount   = 10
	pageRollupCount     = 10
)

// Store is the read surface the report consumes. It reflects committed,
// reconciled state only.
type Store interface {
	GetStats(ctx context.Context) (domain.Stats, error)
	TopPerformers(ctx context.Context, minDays, limit int) ([]domain.Ad, error)
	PageSummaries(ctx context.Context, limit int) ([]storage.PageSummary, error)
	CTACounts(ctx context.Context) ([]storage.CTACount, error)
}

// Build renders the text report from the stored corpus.
func Build(ctx context.Context, store Store, now time.Time) (string, error) {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return "", fmt.Errorf("load stats: %w", err)
	}

	top, err := store.TopPerformers(ctx, topPerformerMinDays, topPerformerCount)
	if err != nil {
		return "", fmt.Errorf("load top performers: %w", err)
	}

	pages, err := store.PageSummaries(ctx, pageRollupCount)
	if err != nil {
		return "", fmt.Errorf("load page summaries: %w", err)
	}

	ctas, err := store.CTACounts(ctx)
	if err != nil {
		return "", fmt.Errorf("load cta counts: %w", err)
	}

	var b strings.Builder

	separator := strings.Repeat("=", separatorWidth)

	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b, "AD INTELLIGENCE REPORT")
	fmt.Fprintf(&b, "Generated at: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "OVERALL")
	fmt.Fprintf(&b, "Total ads:    %d\n", stats.TotalAds)
	fmt.Fprintf(&b, "Active ads:   %d\n", stats.ActiveAds)
	fmt.Fprintf(&b, "Inactive ads: %d\n", stats.InactiveAds)
	fmt.Fprintf(&b, "Unique pages: %d\n", stats.UniquePages)
	fmt.Fprintln(&b)

	writeTopPerformers(&b, top)
	writePageRollup(&b, pages)
	writeCTADistribution(&b, ctas)

	fmt.Fprintln(&b, separator)

	return b.String(), nil
}

func writeTopPerformers(b *strings.Builder, top []domain.Ad) {
	fmt.Fprintf(b, "TOP %d ADS BY LONGEVITY (%d+ days)\n", topPerformerCount, topPerformerMinDays)

	if len(top) == 0 {
		fmt.Fprintln(b, "No ads above the longevity threshold yet.")
		fmt.Fprintln(b)

		return
	}

	for i, ad := range top {
		days := 0
		if ad.DaysActive != nil {
			days = *ad.DaysActive
		}

		fmt.Fprintf(b, "%d. %s - %d days\n", i+1, ad.PageName, days)
		fmt.Fprintf(b, "   Headline: %s\n", strOrDash(ad.Headline))
		fmt.Fprintf(b, "   CTA: %s\n", strOrDash(ad.CTADetected))
		fmt.Fprintln(b)
	}
}

func writePageRollup(b *strings.Builder, pages []storage.PageSummary) {
	fmt.Fprintln(b, "BY PAGE")

	for _, p := range pages {
		fmt.Fprintf(b, "%-40s ads=%-5d active=%-5d avg_days=%.1f\n",
			p.PageName, p.TotalAds, p.ActiveAds, p.AvgDaysActive)
	}

	fmt.Fprintln(b)
}

func writeCTADistribution(b *strings.Builder, ctas []storage.CTACount) {
	fmt.Fprintln(b, "CTA DISTRIBUTION")

	if len(ctas) == 0 {
		fmt.Fprintln(b, "No calls-to-action detected yet.")
	}

	for _, c := range ctas {
		fmt.Fprintf(b, "%-15s %d\n", c.CTA, c.Count)
	}

	fmt.Fprintln(b)
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}

	return *s
}

package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/ad-library-intel/internal/core/domain"
	"github.com/lueurxax/ad-library-intel/internal/storage"
)

type fakeStore struct {
	stats    domain.Stats
	statsErr error
	top      []domain.Ad
	pages    []storage.PageSummary
	ctas     []storage.CTACount
}

func (f *fakeStore) GetStats(context.Context) (domain.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeStore) TopPerformers(context.Context, int, int) ([]domain.Ad, error) {
	return f.top, nil
}

func (f *fakeStore) PageSummaries(context.Context, int) ([]storage.PageSummary, error) {
	return f.pages, nil
}

func (f *fakeStore) CTACounts(context.Context) ([]storage.CTACount, error) {
	return f.ctas, nil
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestBuildRendersAllSections(t *testing.T) {
	store := &fakeStore{
		stats: domain.Stats{TotalAds: 12, ActiveAds: 7, InactiveAds: 5, UniquePages: 3},
		top: []domain.Ad{{
			PageName:    "Acme",
			Headline:    strPtr("Ship faster"),
			CTADetected: strPtr("learn more"),
			DaysActive:  intPtr(45),
		}},
		pages: []storage.PageSummary{{PageName: "Acme", TotalAds: 12, ActiveAds: 7, AvgDaysActive: 21.5}},
		ctas:  []storage.CTACount{{CTA: "learn more", Count: 5}},
	}

	out, err := Build(context.Background(), store, time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, out, "AD INTELLIGENCE REPORT")
	assert.Contains(t, out, "Generated at: 2025-08-01 12:00:00")
	assert.Contains(t, out, "Total ads:    12")
	assert.Contains(t, out, "1. Acme - 45 days")
	assert.Contains(t, out, "Headline: Ship faster")
	assert.Contains(t, out, "CTA: learn more")
	assert.Contains(t, out, "avg_days=21.5")
	assert.Contains(t, out, "learn more     5")
}

func TestBuildEmptyCorpus(t *testing.T) {
	out, err := Build(context.Background(), &fakeStore{}, time.Now())
	require.NoError(t, err)

	assert.Contains(t, out, "No ads above the longevity threshold yet.")
	assert.Contains(t, out, "No calls-to-action detected yet.")
}

func TestBuildMissingFieldsRenderDash(t *testing.T) {
	store := &fakeStore{top: []domain.Ad{{PageName: "Acme", DaysActive: intPtr(30)}}}

	out, err := Build(context.Background(), store, time.Now())
	require.NoError(t, err)

	assert.Contains(t, out, "Headline: -")
	assert.Contains(t, out, "CTA: -")
}

func TestBuildPropagatesStoreError(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("connection refused")}

	_, err := Build(context.Background(), store, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load stats")
}

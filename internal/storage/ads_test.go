package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/ad-library-intel/internal/core/domain"
)

// testDB connects to the database named by TEST_POSTGRES_DSN and runs the
// migrations. Tests using it are skipped without a live database.
func testDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := New(ctx, dsn, &logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))

	return db
}

func testAd(id string) domain.Ad {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	days := 30

	return domain.Ad{
		AdID:       id,
		PageID:     "p1",
		PageName:   "Acme",
		StartDate:  &start,
		IsActive:   true,
		DaysActive: &days,
		Platforms:  []string{"instagram"},
		FullText:   "plain copy",
		TextLength: 10,
		Hashtags:   []string{},
		Mentions:   []string{},
	}
}

func TestReconcileAdsInsertUpdateUnchanged(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	keyword := "kw-" + id

	summary, err := db.ReconcileAds(ctx, []domain.Ad{testAd(id)}, keyword)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileSummary{Inserted: 1}, summary)

	// Replaying the identical batch changes nothing.
	summary, err = db.ReconcileAds(ctx, []domain.Ad{testAd(id)}, keyword)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileSummary{Unchanged: 1}, summary)

	// The upstream reports a stop: exactly one update.
	stopped := testAd(id)
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	days := 44
	stopped.IsActive = false
	stopped.EndDate = &end
	stopped.DaysActive = &days

	summary, err = db.ReconcileAds(ctx, []domain.Ad{stopped}, keyword)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileSummary{Updated: 1}, summary)

	// A late "still active" signal is ignored, not applied.
	summary, err = db.ReconcileAds(ctx, []domain.Ad{testAd(id)}, keyword)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileSummary{Unchanged: 1}, summary)

	ads, err := db.AdsByKeyword(ctx, keyword)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.False(t, ads[0].IsActive)
	require.NotNil(t, ads[0].EndDate)
	assert.Equal(t, keyword, ads[0].SearchKeyword)
}

func TestReconcileAdsStoresRecordsWithoutTags(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Empty derived sets are the common record shape and must insert into
	// the NOT NULL array columns.
	ad := testAd(uuid.NewString())
	ad.Platforms = []string{}
	ad.Hashtags = []string{}
	ad.Mentions = []string{}

	summary, err := db.ReconcileAds(ctx, []domain.Ad{ad}, "kw-"+ad.AdID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileSummary{Inserted: 1}, summary)

	stored, err := db.AdsByKeyword(ctx, "kw-"+ad.AdID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].Hashtags)
	assert.Empty(t, stored[0].Mentions)
}

func TestReconcileAdsContinuesPastFailingRecord(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	good := testAd(uuid.NewString())
	keyword := "kw-" + good.AdID

	// A nil array violates the NOT NULL platforms column; the failure must
	// stay scoped to this record.
	bad := testAd(uuid.NewString())
	bad.Platforms = nil

	summary, err := db.ReconcileAds(ctx, []domain.Ad{bad, good}, keyword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad.AdID)
	assert.Equal(t, domain.ReconcileSummary{Inserted: 1}, summary)

	stored, err := db.AdsByKeyword(ctx, keyword)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, good.AdID, stored[0].AdID)
}

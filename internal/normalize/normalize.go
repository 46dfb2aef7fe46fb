// Package normalize turns raw archive records into structured Ad entities.
//
// Normalization is pure and deterministic: no I/O, no shared state, and it
// never fails outright. Upstream data quality is outside this system's
// control, so malformed fields degrade to nulls in the affected derived
// fields instead of propagating errors.
package normalize

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/ad-library-intel/internal/core/adlibrary"
	"github.com/lueurxax/ad-library-intel/internal/core/domain"
)

const hoursPerDay = 24

// Ad derives a structured Ad from one raw record. now anchors the
// days-active computation for still-running ads.
func Ad(raw adlibrary.RawAd, now time.Time) domain.Ad {
	ad := domain.Ad{
		AdID:        raw.ID,
		PageID:      raw.PageID,
		PageName:    raw.PageName,
		StartDate:   parseArchiveTime(raw.AdDeliveryStartTime),
		EndDate:     parseArchiveTime(raw.AdDeliveryStopTime),
		Platforms:   platforms(raw),
		SnapshotURL: raw.AdSnapshotURL,
		Body:        firstElement(raw.AdCreativeBodies),
		Headline:    firstElement(raw.AdCreativeLinkTitles),
		Description: firstElement(raw.AdCreativeLinkDescriptions),
		LinkCaption: firstElement(raw.AdCreativeLinkCaptions),
	}

	ad.IsActive = ad.EndDate == nil
	ad.FullText = joinText(ad.Body, ad.Headline, ad.Description, ad.LinkCaption)
	ad.TextLength = textLength(ad.FullText)
	ad.HasEmoji = containsEmoji(ad.FullText)
	ad.Hashtags = extractHashtags(ad.FullText)
	ad.HasHashtags = len(ad.Hashtags) > 0
	ad.Mentions = extractMentions(ad.FullText)
	ad.CTADetected = detectCTA(ad.FullText)
	ad.DaysActive = daysActive(ad.StartDate, ad.EndDate, now)

	return ad
}

// Batch normalizes a raw batch in order, anchored at a single instant so
// every record of one run derives days-active consistently.
func Batch(raws []adlibrary.RawAd, now time.Time) []domain.Ad {
	ads := make([]domain.Ad, 0, len(raws))
	for _, raw := range raws {
		ads = append(ads, Ad(raw, now))
	}

	return ads
}

// firstElement reduces a multi-value creative field to its first element.
// Absence or an empty array yields nil, not an error.
func firstElement(values []string) *string {
	if len(values) == 0 {
		return nil
	}

	return &values[0]
}

// joinText space-joins the present components, skipping nils rather than
// embedding empty placeholders.
func joinText(parts ...*string) string {
	joined := ""

	for _, p := range parts {
		if p == nil || *p == "" {
			continue
		}

		if joined != "" {
			joined += " "
		}

		joined += *p
	}

	return joined
}

// parseArchiveTime parses the vendor's ISO-8601 variant with a literal Z
// suffix. Unparsable input yields nil; downstream date-derived fields
// degrade accordingly.
func parseArchiveTime(s string) *time.Time {
	if s == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}

	// The archive occasionally ships date-only or offset-less variants.
	if t, err := dateparse.ParseAny(s); err == nil {
		t = t.UTC()
		return &t
	}

	return nil
}

// daysActive counts whole days from start to end, or to now while the ad
// still runs. Nil without a start date; clamped at zero when the reported
// stop precedes the start.
func daysActive(start, end *time.Time, now time.Time) *int {
	if start == nil {
		return nil
	}

	until := now
	if end != nil {
		until = *end
	}

	days := int(until.Sub(*start).Hours() / hoursPerDay)
	if days < 0 {
		days = 0
	}

	return &days
}

// platforms picks the platform tag set, preferring the dedicated field and
// falling back to publisher_platforms when it is absent. Never nil: the
// stored platforms column is a NOT NULL array.
func platforms(raw adlibrary.RawAd) []string {
	if len(raw.Platforms) > 0 {
		return raw.Platforms
	}

	if raw.PublisherPlatforms != nil {
		return raw.PublisherPlatforms
	}

	return []string{}
}

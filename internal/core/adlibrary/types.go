package adlibrary

import "fmt"

// RawAd is one raw archive record as the upstream API returns it.
// Creative text fields arrive as multi-value arrays; delivery times are
// vendor ISO-8601 strings with a literal Z suffix. The struct is ephemeral
// and handed straight to the normalizer.
type RawAd struct {
	ID                         string   `json:"id"`
	PageID                     string   `json:"page_id"`
	PageName                   string   `json:"page_name"`
	AdCreativeBodies           []string `json:"ad_creative_bodies"`
	AdCreativeLinkTitles       []string `json:"ad_creative_link_titles"`
	AdCreativeLinkDescriptions []string `json:"ad_creative_link_descriptions"`
	AdCreativeLinkCaptions     []string `json:"ad_creative_link_captions"`
	AdDeliveryStartTime        string   `json:"ad_delivery_start_time"`
	AdDeliveryStopTime         string   `json:"ad_delivery_stop_time"`
	AdSnapshotURL              string   `json:"ad_snapshot_url"`
	Platforms                  []string `json:"platforms"`
	PublisherPlatforms         []string `json:"publisher_platforms"`
}

// archivePage is one upstream response page: records plus an optional
// absolute continuation URL.
type archivePage struct {
	Data   []RawAd `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *APIError `json:"error"`
}

// APIError is the structured error object carried by non-2xx responses.
type APIError struct {
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
	Message string `json:"message"`
	Type    string `json:"type"`

	// HTTPStatus is the response status the error arrived with.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ad archive API error: status=%d code=%d subcode=%d: %s",
		e.HTTPStatus, e.Code, e.Subcode, e.Message)
}

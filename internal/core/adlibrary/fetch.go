package adlibrary

import (
	"context"
	"fmt"
	"net/url"
)

// requestKind tags the two ways a page request can be built: the initial
// parameterized request, or an opaque continuation URL that already encodes
// every query parameter and must be followed verbatim.
type requestKind int

const (
	requestInitial requestKind = iota
	requestCursor
)

// pageRequest is the fetch loop's state variant.
type pageRequest struct {
	kind     requestKind
	endpoint string
	params   string
	cursor   string
}

func initialRequest(endpoint string, params url.Values) pageRequest {
	return pageRequest{kind: requestInitial, endpoint: endpoint, params: params.Encode()}
}

func cursorRequest(next string) pageRequest {
	return pageRequest{kind: requestCursor, cursor: next}
}

// url builds the request URL for the current state.
func (r pageRequest) url() string {
	if r.kind == requestCursor {
		return r.cursor
	}

	return r.endpoint + "?" + r.params
}

// fetchAll walks cursor pagination starting at req, accumulating records in
// page order until limit is reached or the upstream runs out of pages.
//
// A failed page (retry budget exhausted) ends the walk and returns whatever
// accumulated so far together with an ErrFetchAborted-wrapped error; the
// partial result remains usable. An empty page that still carries a cursor
// is followed once rather than treated as end of pagination; a second
// consecutive empty page ends the walk.
func (c *Client) fetchAll(ctx context.Context, req pageRequest, limit int) ([]RawAd, error) {
	var records []RawAd

	emptyFollows := 0

	for len(records) < limit {
		page, err := c.getPage(ctx, req.url())
		if err != nil {
			return records, fmt.Errorf("%w after %d records: %w", ErrFetchAborted, len(records), err)
		}

		records = append(records, page.Data...)

		c.logger.Debug().
			Int("page_records", len(page.Data)).
			Int("accumulated", len(records)).
			Msg("archive page fetched")

		if page.Paging.Next == "" {
			break
		}

		if len(page.Data) == 0 {
			emptyFollows++
			if emptyFollows > 1 {
				break
			}
		} else {
			emptyFollows = 0
		}

		req = cursorRequest(page.Paging.Next)
	}

	// The last page may overshoot: never hand back more than requested.
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

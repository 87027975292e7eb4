// Package feeds holds the data-fetching state machines behind the transaction
// view: the employee directory, the paginated global feed and the
// employee-filtered feed. Each owns a fetch.Client for its loading flag and
// shares the process-wide request cache with the others.
package feeds

import "errors"

var (
	// ErrFetchInFlight is returned when a page is requested while another is loading.
	ErrFetchInFlight = errors.New("page fetch already in flight")

	// ErrSuperseded is returned when a response arrived after the feed was
	// invalidated or a newer request was issued. The response is discarded.
	ErrSuperseded = errors.New("response superseded")
)

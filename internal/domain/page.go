package domain

import "time"

const (
	// DefaultLimit is the page size used when the caller supplies none.
	DefaultLimit = 20

	// MaxLimit caps page sizes to prevent runaway queries.
	MaxLimit = 100
)

// NewLimit builds a page size from an optional HTTP query param.
// Nil or non-positive values fall back to DefaultLimit; values above
// MaxLimit are capped.
func NewLimit(limit *int) int {
	if limit == nil || *limit < 1 {
		return DefaultLimit
	}
	if *limit > MaxLimit {
		return MaxLimit
	}
	return *limit
}

// PageQuery carries the pagination bounds from a source adapter to the store.
type PageQuery struct {
	// After, when set, restricts results to occurrences strictly after this
	// key in newest-first order.
	After *FeedKey

	// Since, when non-zero, restricts results to occurrences created at or
	// after it (the look-back window).
	Since time.Time

	Limit int
}

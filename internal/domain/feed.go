package domain

import "time"

// SourceTag names the predicate that produced a feed item.
type SourceTag string

const (
	SourceFollowing SourceTag = "following"
	SourceNearby    SourceTag = "nearby"
	SourceExplore   SourceTag = "explore"
)

// FeedItem is an occurrence in a feed together with the union of the
// sources that returned it, sorted by tag.
type FeedItem struct {
	Occurrence Occurrence  `json:"occurrence"`
	Sources    []SourceTag `json:"sources"`
}

// FeedPage is one page of a merged feed. Items are ordered newest first.
// NextCursor is empty when the traversal is complete.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FeedKey is the compound position of an occurrence in every feed ordering:
// created_at descending, then id descending. It gives a total order even
// when occurrences share a timestamp.
type FeedKey struct {
	CreatedAt time.Time
	ID        string
}

// KeyOf returns the feed position of an occurrence.
func KeyOf(o Occurrence) FeedKey {
	return FeedKey{CreatedAt: o.CreatedAt, ID: o.ID}
}

// Equal reports whether k and other denote the same feed position.
func (k FeedKey) Equal(other FeedKey) bool {
	return k.CreatedAt.Equal(other.CreatedAt) && k.ID == other.ID
}

// Before reports whether k sorts ahead of other in a newest-first feed.
func (k FeedKey) Before(other FeedKey) bool {
	if !k.CreatedAt.Equal(other.CreatedAt) {
		return k.CreatedAt.After(other.CreatedAt)
	}
	return k.ID > other.ID
}

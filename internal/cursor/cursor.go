// Package cursor provides opaque feed pagination token encoding/decoding.
//
// A token carries the compound (created_at, occurrence id) key of the last
// item on a page, so occurrences sharing a timestamp are neither skipped nor
// repeated at a page boundary. It also carries the look-back bound fixed on
// the first page, so the window does not slide during a traversal. Tokens
// are bound to the feed that minted them.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// version is bumped whenever the token layout changes; older tokens are rejected.
const version = 2

// Position is the traversal state a cursor resumes from.
type Position struct {
	// After is the key of the last item already returned.
	After domain.FeedKey

	// Since is the look-back bound of the traversal; zero when unbounded.
	Since time.Time
}

// token is the internal state of a cursor. Timestamps travel as RFC 3339
// strings with nanoseconds.
type token struct {
	Version   int        `json:"v"`
	Feed      string     `json:"f"`
	CreatedAt *time.Time `json:"t"`
	ID        string     `json:"id"`
	Since     *time.Time `json:"s,omitempty"`
}

// Encode encodes pos in the named feed to an opaque string.
// Timestamps outside years 0-9999 are rejected.
func Encode(feed string, pos Position) (string, error) {
	t := token{
		Version:   version,
		Feed:      hashFeed(feed),
		CreatedAt: &pos.After.CreatedAt,
		ID:        pos.After.ID,
	}
	if !pos.Since.IsZero() {
		t.Since = &pos.Since
	}

	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque string produced by Encode for the same feed.
// Every failure wraps domain.ErrInvalidCursor, including an empty string;
// callers treat "no cursor" before calling Decode.
func Decode(feed, s string) (Position, error) {
	if s == "" {
		return Position{}, fmt.Errorf("%w: empty token", domain.ErrInvalidCursor)
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Position{}, fmt.Errorf("%w: decode base64: %v", domain.ErrInvalidCursor, err)
	}

	var t token
	if err := json.Unmarshal(data, &t); err != nil {
		return Position{}, fmt.Errorf("%w: unmarshal: %v", domain.ErrInvalidCursor, err)
	}

	switch {
	case t.Version != version:
		return Position{}, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidCursor, t.Version)
	case t.Feed != hashFeed(feed):
		return Position{}, fmt.Errorf("%w: minted by another feed", domain.ErrInvalidCursor)
	case t.ID == "":
		return Position{}, fmt.Errorf("%w: missing occurrence id", domain.ErrInvalidCursor)
	case t.CreatedAt == nil:
		return Position{}, fmt.Errorf("%w: missing timestamp", domain.ErrInvalidCursor)
	}

	pos := Position{After: domain.FeedKey{CreatedAt: t.CreatedAt.UTC(), ID: t.ID}}
	if t.Since != nil {
		pos.Since = t.Since.UTC()
	}
	return pos, nil
}

// hashFeed computes a short hash of the feed name for cursor validation.
func hashFeed(feed string) string {
	h := sha256.Sum256([]byte(feed))
	return hex.EncodeToString(h[:8])
}

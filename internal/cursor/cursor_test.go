package cursor_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observ-ing/core-sub000/internal/cursor"
	"github.com/observ-ing/core-sub000/internal/domain"
)

func TestEncodeDecode_PreservesKey(t *testing.T) {
	key := domain.FeedKey{
		CreatedAt: time.Date(2025, 6, 1, 8, 30, 0, 123456789, time.UTC),
		ID:        "at://did:plc:a/org.observ.ing.occurrence/3kx",
	}

	s, err := cursor.Encode("home", cursor.Position{After: key})
	require.NoError(t, err)

	got, err := cursor.Decode("home", s)
	require.NoError(t, err)
	assert.True(t, key.CreatedAt.Equal(got.After.CreatedAt), "timestamp should survive at nanosecond precision")
	assert.Equal(t, key.ID, got.After.ID)
	assert.True(t, got.Since.IsZero(), "an unbounded traversal stays unbounded")
}

func TestEncodeDecode_PreservesSince(t *testing.T) {
	since := time.Date(2025, 5, 1, 0, 0, 0, 42, time.UTC)
	pos := cursor.Position{
		After: domain.FeedKey{CreatedAt: since.Add(48 * time.Hour), ID: "occ"},
		Since: since,
	}

	s, err := cursor.Encode("home", pos)
	require.NoError(t, err)

	got, err := cursor.Decode("home", s)
	require.NoError(t, err)
	assert.True(t, since.Equal(got.Since))
}

func TestEncodeDecode_FarTimestamps(t *testing.T) {
	for _, ts := range []time.Time{
		time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2500, 12, 31, 23, 59, 59, 999999999, time.UTC),
	} {
		s, err := cursor.Encode("explore", cursor.Position{After: domain.FeedKey{CreatedAt: ts, ID: "occ"}})
		require.NoError(t, err)

		got, err := cursor.Decode("explore", s)
		require.NoError(t, err)
		assert.True(t, ts.Equal(got.After.CreatedAt), "%s should round-trip", ts)
	}
}

func TestEncode_RejectsUnrepresentableYear(t *testing.T) {
	_, err := cursor.Encode("explore", cursor.Position{
		After: domain.FeedKey{CreatedAt: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), ID: "occ"},
	})
	assert.Error(t, err)
}

func TestEncode_IsURLSafe(t *testing.T) {
	s, err := cursor.Encode("explore", cursor.Position{After: domain.FeedKey{CreatedAt: time.Now(), ID: "at://x/y/z?+"}})
	require.NoError(t, err)
	assert.NotContains(t, s, "+")
	assert.NotContains(t, s, "/")
	assert.NotContains(t, s, "=")
}

func TestDecode_Invalid(t *testing.T) {
	homeCursor, err := cursor.Encode("home", cursor.Position{After: domain.FeedKey{CreatedAt: time.Now(), ID: "occ"}})
	require.NoError(t, err)

	raw := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	tests := map[string]string{
		"empty":          "",
		"not base64":     "!!!",
		"not json":       raw("hello"),
		"wrong version":  raw(`{"v":99,"t":"2025-06-01T00:00:00Z","id":"x"}`),
		"old layout":     raw(`{"v":1,"t":1,"id":"x"}`),
		"missing id":     raw(`{"v":2,"t":"2025-06-01T00:00:00Z"}`),
		"missing time":   raw(`{"v":2,"id":"x"}`),
		"malformed time": raw(`{"v":2,"t":"yesterday","id":"x"}`),
		"foreign feed":   homeCursor,
		"padded base64":  base64.URLEncoding.EncodeToString([]byte(`{"v":2}`)),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := cursor.Decode("explore", token)
			assert.ErrorIs(t, err, domain.ErrInvalidCursor)
		})
	}
}

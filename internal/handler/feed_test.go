package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/handler"
	"github.com/observ-ing/core-sub000/internal/service"
)

func TestGetHomeFeed_200(t *testing.T) {
	var got service.HomeFeedRequest
	svc := &mockFeedServicer{
		home: func(_ context.Context, req service.HomeFeedRequest) (domain.FeedPage, error) {
			got = req
			return domain.FeedPage{
				Items: []domain.FeedItem{{
					Occurrence: domain.Occurrence{ID: testOccurrenceURI},
					Sources:    []domain.SourceTag{domain.SourceFollowing, domain.SourceNearby},
				}},
				NextCursor: "next",
			}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/home?lat=45.5&lng=-122.6&radius_m=1000&cursor=abc&limit=5", nil)
	req.Header.Set("X-Actor-DID", "did:plc:alice")

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "did:plc:alice", got.ViewerDID)
	require.NotNil(t, got.Location)
	assert.Equal(t, 45.5, got.Location.Latitude)
	assert.Equal(t, 1000.0, got.RadiusMeters)
	assert.Equal(t, "abc", got.Cursor)
	assert.Equal(t, 5, got.Limit)

	var resp domain.FeedPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "next", resp.NextCursor)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, []domain.SourceTag{domain.SourceFollowing, domain.SourceNearby}, resp.Items[0].Sources)
}

func TestGetHomeFeed_NoLocation(t *testing.T) {
	var got service.HomeFeedRequest
	svc := &mockFeedServicer{
		home: func(_ context.Context, req service.HomeFeedRequest) (domain.FeedPage, error) {
			got = req
			return domain.FeedPage{Items: []domain.FeedItem{}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/home", nil)

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.Location)
	assert.Equal(t, domain.DefaultLimit, got.Limit)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestGetHomeFeed_400_HalfPoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feeds/home?lat=45.5", nil)

	rec := serve(handler.NewServer(nil, nil, nil, &mockFeedServicer{}), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHomeFeed_400_InvalidCursor(t *testing.T) {
	svc := &mockFeedServicer{
		home: func(context.Context, service.HomeFeedRequest) (domain.FeedPage, error) {
			return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w", domain.ErrInvalidCursor)
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/home?cursor=garbage", nil)

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_cursor", decodeError(t, rec).Code)
}

func TestGetExploreFeed_200(t *testing.T) {
	var got service.ExploreFeedRequest
	svc := &mockFeedServicer{
		explore: func(_ context.Context, req service.ExploreFeedRequest) (domain.FeedPage, error) {
			got = req
			return domain.FeedPage{Items: []domain.FeedItem{}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/explore?name_prefix=Quercus&limit=10", nil)

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Quercus", got.Filter.NamePrefix)
	assert.Nil(t, got.Filter.Near)
	assert.Equal(t, 10, got.Limit)
}

func TestGetExploreFeed_503_SourceUnavailable(t *testing.T) {
	svc := &mockFeedServicer{
		explore: func(context.Context, service.ExploreFeedRequest) (domain.FeedPage, error) {
			return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w", domain.ErrSourceUnavailable)
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/explore", nil)

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "source_unavailable", decodeError(t, rec).Code)
}

func TestGetExploreFeed_503_SourceErrorWrappingOtherSentinels(t *testing.T) {
	for name, inner := range map[string]error{
		"not found":  domain.ErrNotFound,
		"validation": fmt.Errorf("%w: radius too large", domain.ErrValidation),
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockFeedServicer{
				explore: func(context.Context, service.ExploreFeedRequest) (domain.FeedPage, error) {
					return domain.FeedPage{}, fmt.Errorf("feed.Engine.Compose: %w: explore: %w", domain.ErrSourceUnavailable, inner)
				},
			}
			req := httptest.NewRequest(http.MethodGet, "/feeds/explore", nil)

			rec := serve(handler.NewServer(nil, nil, nil, svc), req)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "source_unavailable", decodeError(t, rec).Code)
		})
	}
}

func TestGetExploreFeed_500_UnexpectedError(t *testing.T) {
	svc := &mockFeedServicer{
		explore: func(context.Context, service.ExploreFeedRequest) (domain.FeedPage, error) {
			return domain.FeedPage{}, fmt.Errorf("boom")
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/feeds/explore", nil)

	rec := serve(handler.NewServer(nil, nil, nil, svc), req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

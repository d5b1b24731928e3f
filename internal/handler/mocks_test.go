package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/handler"
	"github.com/observ-ing/core-sub000/internal/service"
)

// mockOccurrenceServicer is a test double for handler.OccurrenceServicer.
// Set only the method fields your test needs.
type mockOccurrenceServicer struct {
	get               func(ctx context.Context, uri string) (domain.Occurrence, error)
	listInBoundingBox func(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Occurrence, error)
}

func (m *mockOccurrenceServicer) Get(ctx context.Context, uri string) (domain.Occurrence, error) {
	return m.get(ctx, uri)
}
func (m *mockOccurrenceServicer) ListInBoundingBox(ctx context.Context, box domain.BoundingBox, limit int) ([]domain.Occurrence, error) {
	return m.listInBoundingBox(ctx, box, limit)
}

var _ handler.OccurrenceServicer = (*mockOccurrenceServicer)(nil)

type mockConsensusServicer struct {
	getConsensus func(ctx context.Context, uri string, subject int) (domain.ConsensusLabel, error)
}

func (m *mockConsensusServicer) GetConsensus(ctx context.Context, uri string, subject int) (domain.ConsensusLabel, error) {
	return m.getConsensus(ctx, uri, subject)
}

var _ handler.ConsensusServicer = (*mockConsensusServicer)(nil)

type mockIdentificationServicer struct {
	submit         func(ctx context.Context, in service.SubmitIdentification) (domain.Identification, error)
	listForSubject func(ctx context.Context, uri string, subject int) ([]service.HistoryItem, error)
}

func (m *mockIdentificationServicer) Submit(ctx context.Context, in service.SubmitIdentification) (domain.Identification, error) {
	return m.submit(ctx, in)
}
func (m *mockIdentificationServicer) ListForSubject(ctx context.Context, uri string, subject int) ([]service.HistoryItem, error) {
	return m.listForSubject(ctx, uri, subject)
}

var _ handler.IdentificationServicer = (*mockIdentificationServicer)(nil)

type mockFeedServicer struct {
	home    func(ctx context.Context, req service.HomeFeedRequest) (domain.FeedPage, error)
	explore func(ctx context.Context, req service.ExploreFeedRequest) (domain.FeedPage, error)
}

func (m *mockFeedServicer) Home(ctx context.Context, req service.HomeFeedRequest) (domain.FeedPage, error) {
	return m.home(ctx, req)
}
func (m *mockFeedServicer) Explore(ctx context.Context, req service.ExploreFeedRequest) (domain.FeedPage, error) {
	return m.explore(ctx, req)
}

var _ handler.FeedServicer = (*mockFeedServicer)(nil)

// ---- helpers ---------------------------------------------------------------

const testOccurrenceURI = "at://did:plc:alice/occurrence/1"

// serve routes req through a Server wired exactly as main.go wires it.
func serve(srv *handler.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

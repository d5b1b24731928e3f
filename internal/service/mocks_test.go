package service_test

import (
	"context"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/repo"
)

// mockOccurrenceRepo is a hand-written test double for repo.OccurrenceRepo.
// Each method is a function field; set only the ones your test needs.
type mockOccurrenceRepo struct {
	create             func(ctx context.Context, occ domain.Occurrence) (domain.Occurrence, error)
	getByID            func(ctx context.Context, uri string) (domain.Occurrence, error)
	queryByOwners      func(ctx context.Context, owners []string, q domain.PageQuery) ([]domain.Occurrence, bool, error)
	queryByRadius      func(ctx context.Context, center domain.GeoPoint, radius float64, q domain.PageQuery) ([]domain.Occurrence, bool, error)
	queryChronological func(ctx context.Context, f domain.ExploreFilter, q domain.PageQuery) ([]domain.Occurrence, bool, error)
	queryBoundingBox   func(ctx context.Context, box domain.BoundingBox, q domain.PageQuery) ([]domain.Occurrence, bool, error)
}

func (m *mockOccurrenceRepo) Create(ctx context.Context, occ domain.Occurrence) (domain.Occurrence, error) {
	return m.create(ctx, occ)
}
func (m *mockOccurrenceRepo) GetByID(ctx context.Context, uri string) (domain.Occurrence, error) {
	return m.getByID(ctx, uri)
}
func (m *mockOccurrenceRepo) QueryByOwners(ctx context.Context, owners []string, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	return m.queryByOwners(ctx, owners, q)
}
func (m *mockOccurrenceRepo) QueryByRadius(ctx context.Context, center domain.GeoPoint, radius float64, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	return m.queryByRadius(ctx, center, radius, q)
}
func (m *mockOccurrenceRepo) QueryChronological(ctx context.Context, f domain.ExploreFilter, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	return m.queryChronological(ctx, f, q)
}
func (m *mockOccurrenceRepo) QueryBoundingBox(ctx context.Context, box domain.BoundingBox, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	return m.queryBoundingBox(ctx, box, q)
}

// compile-time check: mockOccurrenceRepo must satisfy repo.OccurrenceRepo.
var _ repo.OccurrenceRepo = (*mockOccurrenceRepo)(nil)

// mockIdentificationRepo is a test double for repo.IdentificationRepo.
type mockIdentificationRepo struct {
	appendFn       func(ctx context.Context, ident domain.Identification) (domain.Identification, error)
	listForSubject func(ctx context.Context, uri string, subject int) ([]domain.Identification, error)
}

func (m *mockIdentificationRepo) Append(ctx context.Context, ident domain.Identification) (domain.Identification, error) {
	return m.appendFn(ctx, ident)
}
func (m *mockIdentificationRepo) ListForSubject(ctx context.Context, uri string, subject int) ([]domain.Identification, error) {
	return m.listForSubject(ctx, uri, subject)
}

var _ repo.IdentificationRepo = (*mockIdentificationRepo)(nil)

// mockFollowRepo is a test double for repo.FollowRepo.
type mockFollowRepo struct {
	follow       func(ctx context.Context, follower, subject string) error
	listFollowed func(ctx context.Context, follower string) ([]string, error)
}

func (m *mockFollowRepo) Follow(ctx context.Context, follower, subject string) error {
	return m.follow(ctx, follower, subject)
}
func (m *mockFollowRepo) ListFollowed(ctx context.Context, follower string) ([]string, error) {
	return m.listFollowed(ctx, follower)
}

var _ repo.FollowRepo = (*mockFollowRepo)(nil)

// ---- helpers ---------------------------------------------------------------

const testOccurrenceURI = "at://did:plc:alice/occurrence/1"

func occurrenceFixture() domain.Occurrence {
	return domain.Occurrence{
		ID:             testOccurrenceURI,
		OwnerDID:       "did:plc:alice",
		Location:       domain.GeoPoint{Latitude: 45.5, Longitude: -122.6},
		Subjects:       []domain.Subject{{Index: 0}, {Index: 1}},
		ScientificName: "Quercus garryana",
	}
}

// occurrenceRepoWith returns a repo whose GetByID finds only occ.
func occurrenceRepoWith(occ domain.Occurrence) *mockOccurrenceRepo {
	return &mockOccurrenceRepo{
		getByID: func(_ context.Context, uri string) (domain.Occurrence, error) {
			if uri != occ.ID {
				return domain.Occurrence{}, domain.ErrNotFound
			}
			return occ, nil
		},
	}
}

package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// FollowRepo is the local mirror of the social graph.
type FollowRepo interface {
	// Follow records that follower follows subject. Idempotent.
	Follow(ctx context.Context, followerDID, subjectDID string) error

	// ListFollowed returns the identities followerDID follows, ordered by DID.
	ListFollowed(ctx context.Context, followerDID string) ([]string, error)
}

// pgFollowRepo is the Postgres implementation of FollowRepo.
type pgFollowRepo struct {
	db db
}

// NewFollowRepo constructs a FollowRepo backed by the provided db connection.
func NewFollowRepo(db db) FollowRepo {
	return &pgFollowRepo{db: db}
}

// Follow inserts the edge, ignoring duplicates via ON CONFLICT DO NOTHING.
func (r *pgFollowRepo) Follow(ctx context.Context, followerDID, subjectDID string) error {
	const q = `
		INSERT INTO follows (follower_did, subject_did)
		VALUES (@follower_did, @subject_did)
		ON CONFLICT (follower_did, subject_did) DO NOTHING`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"follower_did": followerDID, "subject_did": subjectDID})
	if err != nil {
		return fmt.Errorf("repo.FollowRepo.Follow: %w", err)
	}
	return nil
}

// ListFollowed returns every followed DID.
func (r *pgFollowRepo) ListFollowed(ctx context.Context, followerDID string) ([]string, error) {
	const q = `
		SELECT subject_did
		FROM follows
		WHERE follower_did = @follower_did
		ORDER BY subject_did`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"follower_did": followerDID})
	if err != nil {
		return nil, fmt.Errorf("repo.FollowRepo.ListFollowed: %w", err)
	}

	dids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.FollowRepo.ListFollowed: %w", err)
	}
	return dids, nil
}

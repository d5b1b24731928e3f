package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// OccurrenceRepo defines the read predicates of the occurrence store.
// Every list query returns occurrences newest first, ordered by
// (created_at, uri) descending, plus whether more rows exist beyond the page.
type OccurrenceRepo interface {
	// Create inserts an occurrence. The record store owns writes; this exists
	// for ingestion and fixtures.
	Create(ctx context.Context, occ domain.Occurrence) (domain.Occurrence, error)

	// GetByID retrieves a single occurrence by URI.
	// Returns domain.ErrNotFound if no occurrence with that URI exists.
	GetByID(ctx context.Context, uri string) (domain.Occurrence, error)

	// QueryByOwners returns occurrences owned by any of owners.
	QueryByOwners(ctx context.Context, owners []string, q domain.PageQuery) ([]domain.Occurrence, bool, error)

	// QueryByRadius returns occurrences within radiusMeters of center.
	QueryByRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, q domain.PageQuery) ([]domain.Occurrence, bool, error)

	// QueryChronological returns all occurrences matching the optional filter.
	QueryChronological(ctx context.Context, f domain.ExploreFilter, q domain.PageQuery) ([]domain.Occurrence, bool, error)

	// QueryBoundingBox returns occurrences inside box.
	QueryBoundingBox(ctx context.Context, box domain.BoundingBox, q domain.PageQuery) ([]domain.Occurrence, bool, error)
}

// pgOccurrenceRepo is the Postgres (PostGIS) implementation of OccurrenceRepo.
type pgOccurrenceRepo struct {
	db db
}

// NewOccurrenceRepo constructs an OccurrenceRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewOccurrenceRepo(db db) OccurrenceRepo {
	return &pgOccurrenceRepo{db: db}
}

const occurrenceColumns = `
		uri, owner_did, scientific_name,
		ST_Y(location::geometry), ST_X(location::geometry),
		subject_indexes, created_at`

// Create inserts an occurrence and returns the persisted record.
// A zero CreatedAt lets the database assign now().
func (r *pgOccurrenceRepo) Create(ctx context.Context, occ domain.Occurrence) (domain.Occurrence, error) {
	const q = `
		INSERT INTO occurrences (uri, owner_did, scientific_name, location, subject_indexes, created_at)
		VALUES (@uri, @owner_did, @scientific_name,
		        ST_SetSRID(ST_MakePoint(@lng::float8, @lat::float8), 4326)::geography,
		        @subject_indexes, COALESCE(@created_at::timestamptz, now()))
		RETURNING` + occurrenceColumns

	args := pgx.NamedArgs{
		"uri":             occ.ID,
		"owner_did":       occ.OwnerDID,
		"scientific_name": occ.ScientificName,
		"lat":             occ.Location.Latitude,
		"lng":             occ.Location.Longitude,
		"subject_indexes": subjectIndexes(occ.Subjects),
		"created_at":      nullableTime(occ),
	}

	result, err := scanOccurrence(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Occurrence{}, fmt.Errorf("repo.OccurrenceRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an occurrence by URI.
func (r *pgOccurrenceRepo) GetByID(ctx context.Context, uri string) (domain.Occurrence, error) {
	const q = `SELECT` + occurrenceColumns + `
		FROM occurrences
		WHERE uri = @uri`

	result, err := scanOccurrence(r.db.QueryRow(ctx, q, pgx.NamedArgs{"uri": uri}))
	if err != nil {
		return domain.Occurrence{}, fmt.Errorf("repo.OccurrenceRepo.GetByID: %w", err)
	}
	return result, nil
}

// QueryByOwners returns one page of occurrences owned by any of owners.
func (r *pgOccurrenceRepo) QueryByOwners(ctx context.Context, owners []string, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	w := newWhere()
	w.add("owner_did = ANY(@owners)", "owners", owners)

	occs, more, err := r.page(ctx, w, q)
	if err != nil {
		return nil, false, fmt.Errorf("repo.OccurrenceRepo.QueryByOwners: %w", err)
	}
	return occs, more, nil
}

// QueryByRadius returns one page of occurrences within radiusMeters of center.
func (r *pgOccurrenceRepo) QueryByRadius(ctx context.Context, center domain.GeoPoint, radiusMeters float64, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	w := newWhere()
	w.near(center, radiusMeters)

	occs, more, err := r.page(ctx, w, q)
	if err != nil {
		return nil, false, fmt.Errorf("repo.OccurrenceRepo.QueryByRadius: %w", err)
	}
	return occs, more, nil
}

// QueryChronological returns one page of the public stream.
func (r *pgOccurrenceRepo) QueryChronological(ctx context.Context, f domain.ExploreFilter, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	w := newWhere()
	if f.NamePrefix != "" {
		w.add(`scientific_name LIKE @name_prefix::text || '%'`, "name_prefix", likeEscaper.Replace(f.NamePrefix))
	}
	if f.Near != nil {
		w.near(*f.Near, f.RadiusMeters)
	}

	occs, more, err := r.page(ctx, w, q)
	if err != nil {
		return nil, false, fmt.Errorf("repo.OccurrenceRepo.QueryChronological: %w", err)
	}
	return occs, more, nil
}

// QueryBoundingBox returns one page of occurrences inside box.
func (r *pgOccurrenceRepo) QueryBoundingBox(ctx context.Context, box domain.BoundingBox, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	w := newWhere()
	w.add(`ST_Intersects(location::geometry, ST_MakeEnvelope(@min_lng::float8, @min_lat::float8, @max_lng::float8, @max_lat::float8, 4326))`,
		"min_lng", box.Min.Longitude)
	w.args["min_lat"] = box.Min.Latitude
	w.args["max_lng"] = box.Max.Longitude
	w.args["max_lat"] = box.Max.Latitude

	occs, more, err := r.page(ctx, w, q)
	if err != nil {
		return nil, false, fmt.Errorf("repo.OccurrenceRepo.QueryBoundingBox: %w", err)
	}
	return occs, more, nil
}

// page runs a keyset-paginated query. It fetches one row beyond the limit to
// learn whether more rows exist.
func (r *pgOccurrenceRepo) page(ctx context.Context, w *where, q domain.PageQuery) ([]domain.Occurrence, bool, error) {
	if q.After != nil {
		w.add("(created_at, uri) < (@after_at::timestamptz, @after_uri::text)", "after_at", q.After.CreatedAt)
		w.args["after_uri"] = q.After.ID
	}
	if !q.Since.IsZero() {
		w.add("created_at >= @since::timestamptz", "since", q.Since)
	}
	limit := q.Limit
	if limit < 1 {
		limit = domain.DefaultLimit
	}
	w.args["limit"] = limit + 1

	sql := `SELECT` + occurrenceColumns + `
		FROM occurrences
		` + w.clause() + `
		ORDER BY created_at DESC, uri DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, sql, w.args)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	occs := []domain.Occurrence{}
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan: %w", err)
		}
		occs = append(occs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows: %w", err)
	}

	if len(occs) > limit {
		return occs[:limit], true, nil
	}
	return occs, false, nil
}

// where accumulates AND-ed predicates and their named arguments.
type where struct {
	conds []string
	args  pgx.NamedArgs
}

func newWhere() *where {
	return &where{args: pgx.NamedArgs{}}
}

func (w *where) add(cond, name string, value any) {
	w.conds = append(w.conds, cond)
	w.args[name] = value
}

func (w *where) near(center domain.GeoPoint, radiusMeters float64) {
	w.add(`ST_DWithin(location, ST_SetSRID(ST_MakePoint(@near_lng::float8, @near_lat::float8), 4326)::geography, @radius_m::float8)`,
		"radius_m", radiusMeters)
	w.args["near_lat"] = center.Latitude
	w.args["near_lng"] = center.Longitude
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, "\n\t\t  AND ")
}

// scanOccurrence maps a single database row into a domain.Occurrence.
func scanOccurrence(s scanner) (domain.Occurrence, error) {
	var (
		o       domain.Occurrence
		indexes []int32
	)
	err := s.Scan(&o.ID, &o.OwnerDID, &o.ScientificName,
		&o.Location.Latitude, &o.Location.Longitude, &indexes, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Occurrence{}, domain.ErrNotFound
		}
		return domain.Occurrence{}, err
	}

	o.Subjects = make([]domain.Subject, len(indexes))
	for i, idx := range indexes {
		o.Subjects[i] = domain.Subject{Index: int(idx)}
	}
	return o, nil
}

// subjectIndexes flattens subjects for the subject_indexes column,
// defaulting to subject 0.
func subjectIndexes(subjects []domain.Subject) []int32 {
	if len(subjects) == 0 {
		return []int32{0}
	}
	out := make([]int32, len(subjects))
	for i, s := range subjects {
		out[i] = int32(s.Index)
	}
	return out
}

// nullableTime returns nil for a zero CreatedAt so the column default applies.
func nullableTime(o domain.Occurrence) any {
	if o.CreatedAt.IsZero() {
		return nil
	}
	return o.CreatedAt
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/observ-ing/core-sub000/internal/domain"
)

// IdentificationRepo defines the append-only identification store.
type IdentificationRepo interface {
	// Append inserts a new identification and returns it with its
	// database-generated id and created_at.
	Append(ctx context.Context, ident domain.Identification) (domain.Identification, error)

	// ListForSubject returns every identification for one subject.
	// The order is unspecified; the consensus engine orders history itself.
	ListForSubject(ctx context.Context, occurrenceURI string, subjectIndex int) ([]domain.Identification, error)
}

// pgIdentificationRepo is the Postgres implementation of IdentificationRepo.
type pgIdentificationRepo struct {
	db db
}

// NewIdentificationRepo constructs an IdentificationRepo backed by the provided db connection.
func NewIdentificationRepo(db db) IdentificationRepo {
	return &pgIdentificationRepo{db: db}
}

const identificationColumns = `
		id, occurrence_uri, subject_index, identifier_did, kind,
		scientific_name, comment, confidence, created_at`

// Append inserts an identification row and returns the full persisted record.
func (r *pgIdentificationRepo) Append(ctx context.Context, ident domain.Identification) (domain.Identification, error) {
	const q = `
		INSERT INTO identifications
		    (occurrence_uri, subject_index, identifier_did, kind, scientific_name, comment, confidence)
		VALUES
		    (@occurrence_uri, @subject_index, @identifier_did, @kind, @scientific_name, @comment, @confidence)
		RETURNING` + identificationColumns

	args := pgx.NamedArgs{
		"occurrence_uri":  ident.OccurrenceID,
		"subject_index":   ident.SubjectIndex,
		"identifier_did":  ident.IdentifierDID,
		"kind":            string(ident.Kind),
		"scientific_name": ident.ScientificName,
		"comment":         ident.Comment,
		"confidence":      string(ident.Confidence),
	}

	result, err := scanIdentification(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Identification{}, fmt.Errorf("repo.IdentificationRepo.Append: %w", err)
	}
	return result, nil
}

// ListForSubject returns every identification for the subject.
func (r *pgIdentificationRepo) ListForSubject(ctx context.Context, occurrenceURI string, subjectIndex int) ([]domain.Identification, error) {
	const q = `SELECT` + identificationColumns + `
		FROM identifications
		WHERE occurrence_uri = @occurrence_uri
		  AND subject_index = @subject_index`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"occurrence_uri": occurrenceURI, "subject_index": subjectIndex})
	if err != nil {
		return nil, fmt.Errorf("repo.IdentificationRepo.ListForSubject: %w", err)
	}
	defer rows.Close()

	idents := []domain.Identification{}
	for rows.Next() {
		ident, err := scanIdentification(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.IdentificationRepo.ListForSubject: scan: %w", err)
		}
		idents = append(idents, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.IdentificationRepo.ListForSubject: rows: %w", err)
	}
	return idents, nil
}

// scanIdentification maps a single database row into a domain.Identification.
func scanIdentification(s scanner) (domain.Identification, error) {
	var (
		i          domain.Identification
		id         pgtype.UUID
		kind       string
		confidence string
	)
	err := s.Scan(&id, &i.OccurrenceID, &i.SubjectIndex, &i.IdentifierDID, &kind,
		&i.ScientificName, &i.Comment, &confidence, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Identification{}, domain.ErrNotFound
		}
		return domain.Identification{}, err
	}

	i.ID = uuid.UUID(id.Bytes).String()
	i.Kind = domain.IdentificationKind(kind)
	i.Confidence = domain.Confidence(confidence)
	return i, nil
}

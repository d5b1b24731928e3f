package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/observ-ing/core-sub000/internal/service"
)

// SubmitIdentificationRequest is the body of POST /identifications.
type SubmitIdentificationRequest struct {
	Occurrence     string `json:"occurrence"`
	Subject        int    `json:"subject"`
	IsAgreement    bool   `json:"is_agreement"`
	ScientificName string `json:"scientific_name"`
	Comment        string `json:"comment"`
	Confidence     string `json:"confidence"`
}

// ListIdentifications handles GET /identifications?occurrence=&subject=.
// Returns the subject's history oldest first with supersession flags.
func (s *Server) ListIdentifications(w http.ResponseWriter, r *http.Request) {
	p, err := bindSubject(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	items, err := s.identifications.ListForSubject(r.Context(), p.Occurrence, p.index())
	if err != nil {
		writeServiceError(w, r, err, "occurrence or subject not found")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[service.HistoryItem]{Data: items})
}

// SubmitIdentification handles POST /identifications.
// The identifier is the caller named by the X-Actor-DID header.
func (s *Server) SubmitIdentification(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get(actorHeader)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", actorHeader+" header is required")
		return
	}

	var body SubmitIdentificationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", err.Error())
			return
		}
		badRequest(w, "malformed JSON body: "+err.Error())
		return
	}

	created, err := s.identifications.Submit(r.Context(), service.SubmitIdentification{
		OccurrenceID:   body.Occurrence,
		SubjectIndex:   body.Subject,
		IdentifierDID:  actor,
		IsAgreement:    body.IsAgreement,
		ScientificName: body.ScientificName,
		Comment:        body.Comment,
		Confidence:     domain.Confidence(body.Confidence),
	})
	if err != nil {
		writeServiceError(w, r, err, "occurrence or subject not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

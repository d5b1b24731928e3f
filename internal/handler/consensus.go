package handler

import "net/http"

// GetConsensus handles GET /consensus?occurrence=&subject=.
// A subject nobody has identified yet is 200 with source "none"; an unknown
// occurrence or subject index is 404.
func (s *Server) GetConsensus(w http.ResponseWriter, r *http.Request) {
	p, err := bindSubject(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	label, err := s.consensus.GetConsensus(r.Context(), p.Occurrence, p.index())
	if err != nil {
		writeServiceError(w, r, err, "occurrence or subject not found")
		return
	}
	writeJSON(w, http.StatusOK, label)
}

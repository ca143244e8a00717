package handler

import "net/http"

// GetStatus handles GET /api/status/{response_id}.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "response_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	st, err := s.svc.GetStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "status not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetLatestStatus handles GET /api/status/latest: the most recently updated
// request that is still pending or processing.
func (s *Server) GetLatestStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.LatestActiveStatus(r.Context())
	if err != nil {
		writeError(w, r, err, "no active request found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

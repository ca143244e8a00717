package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkordes/detour/internal/domain"
)

const msgResultNotFound = "result not found"

// CreateResult handles POST /api/results.
func (s *Server) CreateResult(w http.ResponseWriter, r *http.Request) {
	var body ResultRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("invalid JSON body: "+err.Error()))
		return
	}

	created, err := s.svc.CreateResult(r.Context(), requestToResult(body))
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, CreatedResult{ResultID: created.ResultID})
}

// ListResults handles GET /api/results.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	params := domain.NewPaginationParams(page, limit)
	results, total, err := s.svc.ListResults(r.Context(), params)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	now := s.cfg.Now()
	data := make([]Result, len(results))
	for i, res := range results {
		data[i] = resultToResponse(res, now)
	}
	writeJSON(w, http.StatusOK, ResultList{
		Data: data,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      int(total),
			TotalPages: params.TotalPages(total),
		},
	})
}

// GetResult handles GET /api/results/{result_id}.
func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "result_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	res, err := s.svc.GetResult(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgResultNotFound)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res, s.cfg.Now()))
}

// RegenerateResult handles POST /api/results/{result_id}/regenerate.
// The request behind the result is processed again under its response id.
func (s *Server) RegenerateResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "result_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}

	responseID, err := s.svc.Regenerate(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgResultNotFound)
		return
	}

	writeJSON(w, http.StatusOK, RegenerateResponse{Status: "regenerating", ResponseID: responseID})
}

package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"result_id", "response_id", "origin", "destination", "transport_type", "provider",
	"departure_time", "arrival_time", "duration_minutes", "price", "currency", "transfers",
	"score", "score_explain", "checkout_url", "created_at", "expires_at",
}

// ExportResults handles GET /api/results/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportResults(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := queryParam(r, "format", &format); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(err.Error()))
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeJSON(w, http.StatusBadRequest, requestBody("format must be csv or json"))
		return
	}

	results, err := s.svc.ExportResults(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	now := s.cfg.Now()
	rows := make([]Result, len(results))
	for i, res := range results {
		rows[i] = resultToResponse(res, now)
	}

	if format != nil && *format == "csv" {
		writeCSV(w, r, rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// writeCSV encodes rows as CSV. Missing expiries are written as empty cells.
func writeCSV(w http.ResponseWriter, r *http.Request, rows []Result) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(resultToCSVRecord(row))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func resultToCSVRecord(r Result) []string {
	expires := ""
	if r.ExpiresAt != nil {
		expires = r.ExpiresAt.Format(time.RFC3339)
	}
	return []string{
		r.ResultID,
		r.ResponseID,
		r.Origin,
		r.Destination,
		string(r.TransportType),
		r.Provider,
		time.Time(r.DepartureTime).Format(wallLayout),
		time.Time(r.ArrivalTime).Format(wallLayout),
		strconv.Itoa(r.DurationMinutes),
		strconv.FormatFloat(r.Price, 'f', -1, 64),
		r.Currency,
		strconv.Itoa(r.Transfers),
		strconv.FormatFloat(r.Score, 'f', 2, 64),
		r.ScoreExplain,
		r.CheckoutURL,
		r.CreatedAt.Format(time.RFC3339),
		expires,
	}
}

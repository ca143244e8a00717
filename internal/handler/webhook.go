package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/form"
	"github.com/pkordes/detour/internal/metrics"
)

// Webhook sources, used as the metrics label and in logs.
const (
	sourceTally    = "tally"
	sourceTypeform = "typeform"
)

// WebhookResponse acknowledges an accepted submission.
type WebhookResponse struct {
	Status     string `json:"status"`
	ResponseID string `json:"response_id"`
}

type verifyFunc func(body []byte, signature, secret string) error

// TallyWebhook handles POST /webhook/tally.
func (s *Server) TallyWebhook(w http.ResponseWriter, r *http.Request) {
	s.receive(w, r, sourceTally, s.cfg.Tally, form.VerifyTally,
		r.Header.Get("Tally-Signature"), s.cfg.TallySecret)
}

// TypeformWebhook handles POST /webhook/typeform.
func (s *Server) TypeformWebhook(w http.ResponseWriter, r *http.Request) {
	s.receive(w, r, sourceTypeform, s.cfg.Typeform, form.VerifyTypeform,
		r.Header.Get("Typeform-Signature"), s.cfg.TypeformSecret)
}

// receive verifies, parses and submits one webhook delivery. Processing
// happens in the background; the caller gets the response id immediately.
func (s *Server) receive(w http.ResponseWriter, r *http.Request, source string, parser FormParser, verify verifyFunc, signature, secret string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.cfg.Observer.WebhookReceived(source, metrics.OutcomeRejected)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("could not read request body"))
		return
	}

	if err := verify(body, signature, secret); err != nil {
		slog.WarnContext(r.Context(), "webhook rejected", "source", source, "error", err)
		s.cfg.Observer.WebhookReceived(source, metrics.OutcomeRejected)
		writeError(w, r, err, "")
		return
	}

	req, err := parser.Parse(body)
	if err != nil {
		slog.WarnContext(r.Context(), "webhook rejected", "source", source, "error", err)
		s.cfg.Observer.WebhookReceived(source, metrics.OutcomeRejected)
		writeError(w, r, err, "")
		return
	}

	if err := s.svc.Submit(r.Context(), req); err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, domain.ErrValidation) {
			outcome = metrics.OutcomeRejected
		}
		s.cfg.Observer.WebhookReceived(source, outcome)
		writeError(w, r, err, "")
		return
	}

	slog.InfoContext(r.Context(), "webhook accepted", "source", source, "response_id", req.ResponseID)
	s.cfg.Observer.WebhookReceived(source, metrics.OutcomeOK)
	writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", ResponseID: req.ResponseID})
}

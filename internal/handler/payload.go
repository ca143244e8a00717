package handler

import (
	"encoding/json"
	"fmt"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/detour/internal/domain"
)

// wallLayout is how departure and arrival times travel over the API: a
// station clock reading with no offset.
const wallLayout = "2006-01-02T15:04:05"

// wallTime is a naive wall-clock timestamp. It decodes RFC 3339 as well as
// offset-free forms, keeping the clock reading in every case.
type wallTime time.Time

func (t wallTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(wallLayout))
}

func (t *wallTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339, wallLayout, "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = wallTime(domain.WallClock(parsed))
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// ResultRequest is the body of POST /api/results.
type ResultRequest struct {
	ResponseID      string                `json:"response_id"`
	Origin          string                `json:"origin"`
	Destination     string                `json:"destination"`
	TransportType   domain.TransportType  `json:"transport_type"`
	Provider        string                `json:"provider"`
	DepartureTime   wallTime              `json:"departure_time"`
	ArrivalTime     wallTime              `json:"arrival_time"`
	DurationMinutes int                   `json:"duration_minutes"`
	Price           float64               `json:"price"`
	Currency        string                `json:"currency"`
	Transfers       int                   `json:"transfers"`
	CheckoutURL     string                `json:"checkout_url"`
	Score           float64               `json:"score"`
	ScoreExplain    string                `json:"score_explain"`
	ExpiresAt       *time.Time            `json:"expires_at"`
	OriginalRequest *domain.TravelRequest `json:"original_request"`
}

// Result is the API representation of a stored recommendation.
type Result struct {
	ResultID        string                `json:"result_id"`
	ResponseID      string                `json:"response_id"`
	Origin          string                `json:"origin"`
	Destination     string                `json:"destination"`
	TransportType   domain.TransportType  `json:"transport_type"`
	Provider        string                `json:"provider"`
	DepartureDate   openapi_types.Date    `json:"departure_date"`
	DepartureTime   wallTime              `json:"departure_time"`
	ArrivalTime     wallTime              `json:"arrival_time"`
	DurationMinutes int                   `json:"duration_minutes"`
	Price           float64               `json:"price"`
	Currency        string                `json:"currency"`
	Transfers       int                   `json:"transfers"`
	CheckoutURL     string                `json:"checkout_url"`
	Score           float64               `json:"score"`
	ScoreExplain    string                `json:"score_explain"`
	CreatedAt       time.Time             `json:"created_at"`
	ExpiresAt       *time.Time            `json:"expires_at"`
	Expired         bool                  `json:"expired"`
	OriginalRequest *domain.TravelRequest `json:"original_request,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ResultList is the body of GET /api/results.
type ResultList struct {
	Data       []Result   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// CreatedResult is the body of a successful POST /api/results.
type CreatedResult struct {
	ResultID string `json:"result_id"`
}

// RegenerateResponse is the body of POST /api/results/{result_id}/regenerate.
type RegenerateResponse struct {
	Status     string `json:"status"`
	ResponseID string `json:"response_id"`
}

func requestToResult(req ResultRequest) domain.RecommendationResult {
	return domain.RecommendationResult{
		ResponseID:      req.ResponseID,
		Origin:          req.Origin,
		Destination:     req.Destination,
		TransportType:   req.TransportType,
		Provider:        req.Provider,
		DepartureTime:   time.Time(req.DepartureTime),
		ArrivalTime:     time.Time(req.ArrivalTime),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Currency:        req.Currency,
		Transfers:       req.Transfers,
		CheckoutURL:     req.CheckoutURL,
		Score:           req.Score,
		ScoreExplain:    req.ScoreExplain,
		ExpiresAt:       req.ExpiresAt,
		OriginalRequest: req.OriginalRequest,
	}
}

func resultToResponse(r domain.RecommendationResult, now time.Time) Result {
	return Result{
		ResultID:        r.ResultID,
		ResponseID:      r.ResponseID,
		Origin:          r.Origin,
		Destination:     r.Destination,
		TransportType:   r.TransportType,
		Provider:        r.Provider,
		DepartureDate:   openapi_types.Date{Time: r.DepartureTime},
		DepartureTime:   wallTime(r.DepartureTime),
		ArrivalTime:     wallTime(r.ArrivalTime),
		DurationMinutes: r.DurationMinutes,
		Price:           r.Price,
		Currency:        r.Currency,
		Transfers:       r.Transfers,
		CheckoutURL:     r.CheckoutURL,
		Score:           r.Score,
		ScoreExplain:    r.ScoreExplain,
		CreatedAt:       r.CreatedAt,
		ExpiresAt:       r.ExpiresAt,
		Expired:         r.IsExpired(now),
		OriginalRequest: r.OriginalRequest,
	}
}

package domain

import "time"

// RecommendationResult is the persisted outcome of a travel request: the top
// ranked option, its checkout link and the explanation shown to the user.
type RecommendationResult struct {
	ResultID        string         `json:"result_id"`
	ResponseID      string         `json:"response_id"`
	Origin          string         `json:"origin"`
	Destination     string         `json:"destination"`
	TransportType   TransportType  `json:"transport_type"`
	Provider        string         `json:"provider"`
	DepartureTime   time.Time      `json:"departure_time"`
	ArrivalTime     time.Time      `json:"arrival_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Price           float64        `json:"price"`
	Currency        string         `json:"currency"`
	Transfers       int            `json:"transfers"`
	CheckoutURL     string         `json:"checkout_url"`
	Score           float64        `json:"score"`
	ScoreExplain    string         `json:"score_explain"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       *time.Time     `json:"expires_at"`
	OriginalRequest *TravelRequest `json:"original_request,omitempty"`
}

// IsExpired reports whether the checkout link has lapsed at now.
// Results without an expiry never expire.
func (r RecommendationResult) IsExpired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return r.ExpiresAt.Before(now)
}

// Request returns the travel request that produced r. Results saved before the
// request was stored are rebuilt from their own fields.
func (r RecommendationResult) Request() TravelRequest {
	if r.OriginalRequest != nil {
		return *r.OriginalRequest
	}
	return TravelRequest{
		ResponseID:     r.ResponseID,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureDate:  r.DepartureTime.Format("2006-01-02"),
		DepartureTime:  r.DepartureTime.Format("15:04"),
		Preferences:    DefaultPreferences(),
		PassengerCount: 1,
	}
}

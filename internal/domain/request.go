package domain

// TravelRequest is the canonical record produced by every form adapter.
// ResponseID is the form provider's submission identifier and keys the
// processing status for the whole life of the request.
type TravelRequest struct {
	ResponseID     string      `json:"response_id" validate:"required"`
	Origin         string      `json:"origin" validate:"required"`
	Destination    string      `json:"destination" validate:"required"`
	DepartureDate  string      `json:"departure_date" validate:"required,datetime=2006-01-02"`
	DepartureTime  string      `json:"departure_time,omitempty" validate:"omitempty,datetime=15:04"`
	Preferences    Preferences `json:"preferences"`
	Email          string      `json:"email,omitempty" validate:"omitempty,email"`
	PassengerCount int         `json:"passenger_count" validate:"gte=1"`
}

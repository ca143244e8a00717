package form

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkordes/detour/internal/domain"
)

// TypeformPayload is the envelope Typeform posts to a webhook.
type TypeformPayload struct {
	EventID      string                `json:"event_id"`
	EventType    string                `json:"event_type"`
	FormResponse *TypeformFormResponse `json:"form_response"`
}

type TypeformFormResponse struct {
	FormID  string           `json:"form_id"`
	Token   string           `json:"token"`
	Answers []TypeformAnswer `json:"answers"`
}

// TypeformAnswer is one answer; which value field is set depends on Type.
type TypeformAnswer struct {
	Type  string `json:"type"`
	Field struct {
		ID   string `json:"id"`
		Ref  string `json:"ref"`
		Type string `json:"type"`
	} `json:"field"`
	Text    *string  `json:"text,omitempty"`
	Email   *string  `json:"email,omitempty"`
	URL     *string  `json:"url,omitempty"`
	Date    *string  `json:"date,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
	Choice  *struct {
		Label string `json:"label"`
		Other string `json:"other"`
	} `json:"choice,omitempty"`
}

// Typeform parses Typeform webhook bodies. Field refs are the canonical names.
type Typeform struct{}

func NewTypeform() *Typeform {
	return &Typeform{}
}

// Parse decodes body and extracts the travel request.
func (*Typeform) Parse(body []byte) (domain.TravelRequest, error) {
	var p TypeformPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Typeform.Parse: %w: %v", ErrMalformed, err)
	}
	if p.FormResponse == nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Typeform.Parse: %w: missing form_response", ErrMalformed)
	}
	if p.FormResponse.Token == "" {
		return domain.TravelRequest{}, fmt.Errorf("form.Typeform.Parse: %w: form_response.token is missing", domain.ErrValidation)
	}

	req, err := buildRequest(p.FormResponse.Token, func(name string) (string, bool) {
		for _, a := range p.FormResponse.Answers {
			if a.Field.Ref == name {
				return a.value()
			}
		}
		return "", false
	})
	if err != nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Typeform.Parse: %w", err)
	}
	return req, nil
}

func (a TypeformAnswer) value() (string, bool) {
	switch a.Type {
	case "text":
		return deref(a.Text)
	case "choice":
		if a.Choice == nil {
			return "", false
		}
		if a.Choice.Label != "" {
			return a.Choice.Label, true
		}
		return a.Choice.Other, a.Choice.Other != ""
	case "date":
		return deref(a.Date)
	case "number":
		if a.Number == nil {
			return "", false
		}
		return strconv.FormatFloat(*a.Number, 'f', -1, 64), true
	}

	for _, s := range []*string{a.Text, a.Date} {
		if s != nil {
			return *s, true
		}
	}
	if a.Number != nil {
		return strconv.FormatFloat(*a.Number, 'f', -1, 64), true
	}
	if a.Boolean != nil {
		return strconv.FormatBool(*a.Boolean), true
	}
	for _, s := range []*string{a.Email, a.URL} {
		if s != nil {
			return *s, true
		}
	}
	return "", false
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

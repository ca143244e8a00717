// Package form turns form-provider webhook payloads into domain.TravelRequest
// values and verifies their signatures.
package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/detour/internal/domain"
)

// ErrMalformed is returned when a payload is not valid JSON or does not have
// the provider's envelope shape. Handlers should map this to HTTP 400.
var ErrMalformed = errors.New("malformed payload")

// Canonical field names every adapter resolves its answers to.
const (
	FieldOrigin           = "origin"
	FieldDestination      = "destination"
	FieldDepartureDate    = "departure_date"
	FieldDepartureTime    = "departure_time"
	FieldPassengerCount   = "passenger_count"
	FieldEmail            = "email"
	FieldPrimaryGoal      = "primary_goal"
	FieldModePreference   = "mode_preference"
	FieldMaxTransfers     = "max_transfers"
	FieldAvoidNight       = "avoid_night"
	FieldAvoidLongLayover = "avoid_long_layover"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// lookup returns the answer for a canonical field name.
type lookup func(name string) (string, bool)

// buildRequest assembles and validates a TravelRequest from answers.
func buildRequest(responseID string, get lookup) (domain.TravelRequest, error) {
	value := func(name string) string {
		v, _ := get(name)
		return strings.TrimSpace(v)
	}

	for _, name := range []string{FieldOrigin, FieldDestination, FieldDepartureDate} {
		if value(name) == "" {
			return domain.TravelRequest{}, fmt.Errorf("%w: required field %q is missing", domain.ErrValidation, name)
		}
	}

	req := domain.TravelRequest{
		ResponseID:     responseID,
		Origin:         value(FieldOrigin),
		Destination:    value(FieldDestination),
		DepartureDate:  value(FieldDepartureDate),
		DepartureTime:  value(FieldDepartureTime),
		Email:          value(FieldEmail),
		PassengerCount: 1,
		Preferences:    domain.DefaultPreferences(),
	}

	if raw := value(FieldPassengerCount); raw != "" {
		n, err := parseCount(raw)
		if err != nil {
			return domain.TravelRequest{}, fmt.Errorf("%w: passenger_count %q is not a number", domain.ErrValidation, raw)
		}
		req.PassengerCount = n
	}

	if goal, err := domain.ParsePrimaryGoal(value(FieldPrimaryGoal)); err == nil {
		req.Preferences.PrimaryGoal = goal
	}
	req.Preferences.AvoidNight = truthy(value(FieldAvoidNight))
	req.Preferences.AvoidLongLayover = truthy(value(FieldAvoidLongLayover))

	if raw := value(FieldModePreference); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if mode, err := domain.ParseTransportType(part); err == nil {
				req.Preferences.ModePreference = append(req.Preferences.ModePreference, mode)
			}
		}
	}
	if raw := value(FieldMaxTransfers); raw != "" {
		n, err := parseCount(raw)
		if err != nil || n < 0 {
			return domain.TravelRequest{}, fmt.Errorf("%w: max_transfers %q is not a number", domain.ErrValidation, raw)
		}
		req.Preferences.MaxTransfers = &n
	}

	if err := Validate(req); err != nil {
		return domain.TravelRequest{}, err
	}
	return req, nil
}

// Validate checks req against its struct tags and reports every failing field.
func Validate(req domain.TravelRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// parseCount accepts integers and integral floats ("2", "2.0").
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "on":
		return true
	}
	return false
}

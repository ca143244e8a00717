package form

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkordes/detour/internal/domain"
)

// TallyPayload is the envelope Tally posts to a webhook.
type TallyPayload struct {
	EventID   string     `json:"eventId"`
	EventType string     `json:"eventType"`
	CreatedAt string     `json:"createdAt"`
	Data      *TallyData `json:"data"`
}

type TallyData struct {
	ResponseID   string       `json:"responseId"`
	SubmissionID string       `json:"submissionId"`
	RespondentID string       `json:"respondentId"`
	FormID       string       `json:"formId"`
	Fields       []TallyField `json:"fields"`
}

// TallyField is one answer. Value is a string, number, option object or a
// list of either, depending on the question type.
type TallyField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Tally parses Tally webhook bodies.
type Tally struct {
	keys KeyMap
}

// NewTally returns a Tally adapter. A nil key map uses DefaultTallyKeyMap.
func NewTally(keys KeyMap) *Tally {
	if keys == nil {
		keys = DefaultTallyKeyMap()
	}
	return &Tally{keys: keys}
}

// Parse decodes body and extracts the travel request.
func (t *Tally) Parse(body []byte) (domain.TravelRequest, error) {
	var p TallyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Tally.Parse: %w: %v", ErrMalformed, err)
	}
	if p.Data == nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Tally.Parse: %w: missing data", ErrMalformed)
	}
	if p.Data.ResponseID == "" {
		return domain.TravelRequest{}, fmt.Errorf("form.Tally.Parse: %w: data.responseId is missing", domain.ErrValidation)
	}

	req, err := buildRequest(p.Data.ResponseID, func(name string) (string, bool) {
		for _, f := range p.Data.Fields {
			if t.keys.resolve(f.Key) == name {
				return tallyValue(f.Value)
			}
		}
		return "", false
	})
	if err != nil {
		return domain.TravelRequest{}, fmt.Errorf("form.Tally.Parse: %w", err)
	}
	return req, nil
}

// tallyValue flattens a field value to a string. Option objects contribute
// their name or label; lists contribute their first element.
func tallyValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case map[string]any:
		return optionLabel(val), true
	case []any:
		if len(val) == 0 {
			return "", false
		}
		if obj, ok := val[0].(map[string]any); ok {
			return optionLabel(obj), true
		}
		return fmt.Sprint(val[0]), true
	default:
		return fmt.Sprint(val), true
	}
}

func optionLabel(obj map[string]any) string {
	for _, k := range []string{"name", "label"} {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprint(obj)
}

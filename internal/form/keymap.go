package form

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// KeyMap resolves provider-specific field keys to canonical field names.
// Keys missing from the map are used verbatim.
type KeyMap map[string]string

// DefaultTallyKeyMap returns the field keys of the production Tally form.
func DefaultTallyKeyMap() KeyMap {
	return KeyMap{
		"question_nGVOax": FieldOrigin,
		"question_mOWkbr": FieldDestination,
		"question_3XePVe": FieldDepartureDate,
		"question_wQ72Nd": FieldPassengerCount,
		"question_3jPB7E": FieldEmail,
		"question_wMEaVL": FieldDepartureTime,
		"question_3Nbyp2": FieldPrimaryGoal,
	}
}

// LoadKeyMap reads a YAML mapping of field key to canonical name from path and
// lays it over the defaults. An empty path returns the defaults.
func LoadKeyMap(path string) (KeyMap, error) {
	km := DefaultTallyKeyMap()
	if path == "" {
		return km, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form.LoadKeyMap: %w", err)
	}
	var override map[string]string
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("form.LoadKeyMap: %s: %w", path, err)
	}
	maps.Copy(km, override)
	return km, nil
}

func (k KeyMap) resolve(key string) string {
	if name, ok := k[key]; ok {
		return name
	}
	return key
}

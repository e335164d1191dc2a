package predict

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrInvalidSymptomsJSON = errors.New("invalid JSON format for symptoms")
	ErrSymptomsNotList     = errors.New("symptoms must be a list")
)

// ParseSymptoms decodes the form field carrying a JSON array of phrases.
func ParseSymptoms(raw string) ([]string, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return nil, ErrInvalidSymptomsJSON
	}
	list, ok := v.([]any)
	if !ok {
		return nil, ErrSymptomsNotList
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, ErrSymptomsNotList
		}
		out = append(out, s)
	}
	return out, nil
}

package events

import (
	"encoding/json"
	"fmt"
)

// encodePayload normalizes an arbitrary payload (typed struct or map) into
// the decoded field map handed to subscribers plus its raw JSON form.
func encodePayload(payload any) (map[string]any, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling payload: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("payload must encode to a JSON object: %w", err)
	}
	return fields, raw, nil
}

// coerceValues flattens a field map into stream entry values. Every value is
// carried as its JSON encoding — strings included, so a digits-only sender
// like "9876543210" survives the round trip as a string, not a number.
func coerceValues(fields map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(fields))
	for key, val := range fields {
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", key, err)
		}
		values[key] = string(raw)
	}
	return values, nil
}

// parseFields reverses coerceValues for a consumed stream entry: each value
// that parses as JSON is decoded; entries written by foreign producers stay
// raw strings.
func parseFields(values map[string]any) map[string]any {
	fields := make(map[string]any, len(values))
	for key, val := range values {
		s, ok := val.(string)
		if !ok {
			fields[key] = val
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			fields[key] = decoded
		} else {
			fields[key] = s
		}
	}
	return fields
}

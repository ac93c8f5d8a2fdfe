// Package jsonx walks JSON objects whose keys are not known ahead of time.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one member of a JSON object
type Entry struct {
	Key   string
	Value json.RawMessage
}

// ObjectEntries decodes a JSON object and returns its members in document order.
// Values are left raw so callers can decode (or skip) each one independently.
func ObjectEntries(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode value for %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: raw})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return entries, nil
}

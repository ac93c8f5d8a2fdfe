package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/yegors/skyguess/internal/jsonx"
	"github.com/yegors/skyguess/internal/upstream"
)

// Leg is the part of an activity-log entry the game needs
type Leg struct {
	Destination string
	Origin      string
	Model       string
}

type activityEntry struct {
	ActivityLog struct {
		Flights []json.RawMessage `json:"flights"`
	} `json:"activityLog"`
}

// LatestLeg walks the bootstrap's flights mapping in document order and returns
// element 0 of the first non-empty activity log. Element 0 is taken as the most
// recent leg; no date comparison is made.
func LatestLeg(bootstrap []byte) (Leg, error) {
	var doc struct {
		Flights json.RawMessage `json:"flights"`
	}
	if err := json.Unmarshal(bootstrap, &doc); err != nil {
		return Leg{}, fmt.Errorf("%w: bootstrap is not a JSON object: %v", upstream.ErrMalformed, err)
	}
	if len(doc.Flights) == 0 || string(doc.Flights) == "null" {
		return Leg{}, fmt.Errorf("%w: bootstrap has no flights", upstream.ErrNotFound)
	}

	entries, err := jsonx.ObjectEntries(doc.Flights)
	if err != nil {
		return Leg{}, fmt.Errorf("%w: flights is not an object: %v", upstream.ErrMalformed, err)
	}

	for _, e := range entries {
		var entry activityEntry
		if err := json.Unmarshal(e.Value, &entry); err != nil {
			continue
		}
		if len(entry.ActivityLog.Flights) == 0 {
			continue
		}

		var latest map[string]interface{}
		if err := json.Unmarshal(entry.ActivityLog.Flights[0], &latest); err != nil || latest == nil {
			return Leg{}, fmt.Errorf("%w: activity log entry for %s is not an object", upstream.ErrMalformed, e.Key)
		}
		return legFrom(latest), nil
	}

	return Leg{}, fmt.Errorf("%w: no activity log entries", upstream.ErrNotFound)
}

func legFrom(m map[string]interface{}) Leg {
	dest := object(m, "destination")
	aircraft := object(m, "aircraft")
	origin := object(m, "origin")

	return Leg{
		Destination: firstNonEmpty(str(dest, "friendlyLocation"), str(dest, "iata")),
		Model:       firstNonEmpty(str(aircraft, "friendlyType"), str(aircraft, "type")),
		Origin:      str(origin, "friendlyLocation"),
	}
}

func object(m map[string]interface{}, key string) map[string]interface{} {
	o, _ := m[key].(map[string]interface{})
	return o
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

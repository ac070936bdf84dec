// Package events defines the typed model for recorder webhook events and
// the parsing of raw webhook bodies into it.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"recorder-notifier/internal/common/errors"
)

// Type identifies a recording-session lifecycle event.
type Type string

const (
	TypeSessionStarted Type = "SessionStarted"
	TypeFileOpening    Type = "FileOpening"
	TypeFileClosed     Type = "FileClosed"
	TypeSessionEnded   Type = "SessionEnded"
	TypeStreamStarted  Type = "StreamStarted"
	TypeStreamEnded    Type = "StreamEnded"
	// TypeUnknown covers event types this version does not recognize.
	// Unknown events are still notified, not rejected.
	TypeUnknown Type = "Unknown"
)

var knownTypes = map[Type]bool{
	TypeSessionStarted: true,
	TypeFileOpening:    true,
	TypeFileClosed:     true,
	TypeSessionEnded:   true,
	TypeStreamStarted:  true,
	TypeStreamEnded:    true,
}

// Event is a single webhook delivery from the recorder. It is constructed by
// Parse and never mutated afterward.
type Event struct {
	// ID is the sender-assigned event identifier, used as the dedup key.
	ID string
	// Type is the recognized event type, or TypeUnknown.
	Type Type
	// RawType is the event type string exactly as sent, preserved for
	// unknown events so operators can see unexpected upstream behavior.
	RawType string
	// Timestamp is the raw EventTimestamp string as sent.
	Timestamp string
	// Data holds the EventData fields (room id, streamer name, file path, ...).
	Data map[string]interface{}
}

// wireEvent matches the recorder's webhook JSON layout.
type wireEvent struct {
	EventType      string                 `json:"EventType"`
	EventTimestamp string                 `json:"EventTimestamp"`
	EventID        string                 `json:"EventId"`
	EventData      map[string]interface{} `json:"EventData"`
}

// Parse decodes a raw webhook body into an Event.
//
// EventId is the one mandatory field: without it deduplication and
// correlation are impossible, so its absence is a validation error. An
// unrecognized EventType string is preserved and produces a TypeUnknown
// event rather than an error.
func Parse(body []byte) (*Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, errors.ValidationError("request body is not a valid JSON object")
	}

	if wire.EventID == "" {
		return nil, errors.ValidationError("missing EventId")
	}

	eventType := Type(wire.EventType)
	if !knownTypes[eventType] {
		eventType = TypeUnknown
	}

	data := wire.EventData
	if data == nil {
		data = map[string]interface{}{}
	}

	return &Event{
		ID:        wire.EventID,
		Type:      eventType,
		RawType:   wire.EventType,
		Timestamp: wire.EventTimestamp,
		Data:      data,
	}, nil
}

// DataString returns the named EventData field rendered as a string, or "-"
// when the field is absent. Missing optional fields must never abort
// rendering.
func (e *Event) DataString(key string) string {
	value, ok := e.Data[key]
	if !ok || value == nil {
		return "-"
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return "-"
		}
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a fractional part so room ids and byte counts read naturally.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RoomID returns the numeric RoomId field, or false when absent or
// non-numeric.
func (e *Event) RoomID() (int64, bool) {
	value, ok := e.Data["RoomId"]
	if !ok {
		return 0, false
	}
	number, ok := value.(float64)
	if !ok {
		return 0, false
	}
	return int64(number), true
}

// FormattedTimestamp returns the event timestamp normalized to
// "2006-01-02 15:04:05-0700". Timestamps that do not parse as RFC 3339 are
// returned verbatim, and an empty timestamp renders as "-".
func (e *Event) FormattedTimestamp() string {
	if e.Timestamp == "" {
		return "-"
	}
	parsed, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return e.Timestamp
	}
	return parsed.Format("2006-01-02 15:04:05-0700")
}

package notify

import "recorder-notifier/internal/events"

// Filter restricts which events result in a notification. A disabled filter
// lets everything through. When enabled, an empty allow-set means "allow all"
// for that dimension; unknown event types are compared by their raw string.
type Filter struct {
	Enabled    bool
	EventTypes map[string]bool
	RoomIDs    map[int64]bool
}

// NewFilter builds a Filter from the configured allow-lists.
func NewFilter(enabled bool, eventTypes []string, roomIDs []int64) *Filter {
	filter := &Filter{
		Enabled:    enabled,
		EventTypes: make(map[string]bool, len(eventTypes)),
		RoomIDs:    make(map[int64]bool, len(roomIDs)),
	}
	for _, t := range eventTypes {
		filter.EventTypes[t] = true
	}
	for _, id := range roomIDs {
		filter.RoomIDs[id] = true
	}
	return filter
}

// ShouldPush reports whether the event passes the filter.
func (f *Filter) ShouldPush(event *events.Event) bool {
	if f == nil || !f.Enabled {
		return true
	}

	if len(f.EventTypes) > 0 && !f.EventTypes[event.RawType] {
		return false
	}

	if len(f.RoomIDs) > 0 {
		roomID, ok := event.RoomID()
		if !ok || !f.RoomIDs[roomID] {
			return false
		}
	}

	return true
}

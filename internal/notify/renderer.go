// Package notify renders recorder events into human-readable notification
// text and decides which events are worth pushing.
package notify

import (
	"fmt"
	"strings"

	"recorder-notifier/internal/events"
)

// typeLabels maps each recognized event type to its notification label.
var typeLabels = map[events.Type]string{
	events.TypeSessionStarted: "Recording started",
	events.TypeFileOpening:    "File opened",
	events.TypeFileClosed:     "File closed",
	events.TypeSessionEnded:   "Recording ended",
	events.TypeStreamStarted:  "Stream started",
	events.TypeStreamEnded:    "Stream ended",
}

// Render produces the notification text for an event. It is a pure function:
// no I/O, no side effects, and it never fails. Missing payload fields render
// as "-" so a notification about a sparse event is still delivered.
//
// Unknown event types get a generic header that carries the raw type string
// and the event id, so operators can diagnose unexpected upstream behavior.
func Render(event *events.Event) string {
	label, known := typeLabels[event.Type]
	if !known {
		label = fmt.Sprintf("Unknown event (%s)", event.RawType)
	}

	lines := []string{
		fmt.Sprintf("📡 Live event: %s", label),
		fmt.Sprintf("Time: %s", event.FormattedTimestamp()),
		fmt.Sprintf("Streamer: %s", event.DataString("Name")),
		fmt.Sprintf("Title: %s", event.DataString("Title")),
		fmt.Sprintf("Recording: %s", event.DataString("Recording")),
		fmt.Sprintf("Streaming: %s", event.DataString("Streaming")),
	}

	if event.Type == events.TypeFileOpening || event.Type == events.TypeFileClosed {
		lines = append(lines, fmt.Sprintf("File: %s", event.DataString("RelativePath")))
	}
	if event.Type == events.TypeFileClosed {
		lines = append(lines,
			fmt.Sprintf("Duration: %s seconds", event.DataString("Duration")),
			fmt.Sprintf("Size: %s bytes", event.DataString("FileSize")),
		)
	}
	if !known {
		lines = append(lines, fmt.Sprintf("EventId: %s", event.ID))
	}

	return strings.Join(lines, "\n")
}

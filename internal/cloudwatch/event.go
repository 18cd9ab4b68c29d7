package cloudwatch

import (
	"sort"
	"strings"
	"time"
)

// Event is the reduced model consumed from the actor boundary. An event is
// well-formed iff every field is present; the conversion from the raw SDK
// type fails with MalformedEventError otherwise.
type Event struct {
	LogGroupName   string
	EventID        string
	IngestionTime  time.Time
	LogStreamName  string
	Message        string
	Timestamp      time.Time
}

// Render joins events into the mount's file-content format: for each
// event, the line "[" + stream + "] " + message, sorted ascending by
// timestamp (ties broken by the stable input order after fan-in), joined
// by a single '\n' with no trailing newline.
func Render(events []Event) []byte {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	lines := make([]string, len(sorted))
	for i, e := range sorted {
		lines[i] = "[" + e.LogStreamName + "] " + e.Message
	}
	return []byte(strings.Join(lines, "\n"))
}

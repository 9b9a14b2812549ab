package events

// EventType represents the type of an event in the system.
type EventType string

const (
	// EventTypeUploadFinalized is emitted once an upload reaches a terminal status.
	EventTypeUploadFinalized EventType = "Upload.Finalized"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is implemented by everything published on an event bus.
type Event interface {
	Type() string
}

// EventTypes maps each event type to a constructor of its zero value, used to
// decode events received from a broker.
var EventTypes = map[EventType]func() Event{
	EventTypeUploadFinalized: func() Event { return &UploadFinalized{} },
}

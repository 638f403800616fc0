package domain

import "time"

// EventType classifies a collection mutation.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event represents a change applied to a record in a collection. Events are
// dispatched synchronously and only inside the publishing process; cross-tab
// or cross-process delivery is out of scope.
type Event struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Type       EventType `json:"type"`
	Record     Record    `json:"record"`
	At         time.Time `json:"at"`
}

package model

// Event types recorded by the append-only history mirror tables. Every write
// to a mirrored table emits an event row carrying the state of the row after
// the change, tagged with one of these.
const (
	EventTypeCreate = "create"
	EventTypeUpdate = "update"
	EventTypeDelete = "delete"
)

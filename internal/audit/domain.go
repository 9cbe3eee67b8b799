package audit

import "time"

// Event is a structured audit record emitted by the lifecycle engine.
type Event struct {
	ActorID       int64     `json:"actor_id"`
	Action        string    `json:"action"`
	ObjectType    string    `json:"object_type"`
	ObjectID      string    `json:"object_id"`
	UpdatedFields []string  `json:"updated_fields,omitempty"`
	At            time.Time `json:"timestamp"`
}

// TimelineFilters narrows the audit timeline query.
type TimelineFilters struct {
	Action     string
	ObjectType string
	ActorID    int64
	Page       int
	PageSize   int
}

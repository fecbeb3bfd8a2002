package model

type EventType string

const (
	EventTypeProjectCreated   EventType = "project.created"
	EventTypeUserCreated      EventType = "user.created"
	EventTypeCardCreated      EventType = "card.created"
	EventTypeCardUpdated      EventType = "card.updated"
	EventTypeCardCommented    EventType = "card.commented"
	EventTypeCommentDeleted   EventType = "card.comment_deleted"
	EventTypeReferenceCreated EventType = "reference.created"
	EventTypeReferenceDeleted EventType = "reference.deleted"
)

var websocketEventTypes = []EventType{
	EventTypeProjectCreated,
	EventTypeUserCreated,
	EventTypeCardCreated,
	EventTypeCardUpdated,
	EventTypeCardCommented,
	EventTypeCommentDeleted,
	EventTypeReferenceCreated,
	EventTypeReferenceDeleted,
}

func WebSocketEventTypes() []EventType {
	out := make([]EventType, len(websocketEventTypes))
	copy(out, websocketEventTypes)
	return out
}

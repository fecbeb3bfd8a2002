package model

import "time"

const (
	StatusBacklog    = "backlog"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
	StatusWontDo     = "wont_do"
	StatusInvalid    = "invalid"
)

var AllowedStatus = map[string]struct{}{
	StatusBacklog:    {},
	StatusInProgress: {},
	StatusReview:     {},
	StatusBlocked:    {},
	StatusDone:       {},
	StatusWontDo:     {},
	StatusInvalid:    {},
}

var AllowedCardType = map[string]struct{}{
	"story": {},
	"bug":   {},
	"task":  {},
	"epic":  {},
	"spike": {},
	"chore": {},
}

const (
	UserTypeHuman = "human"
	UserTypeAI    = "ai"
)

const (
	DefaultStatus   = StatusBacklog
	DefaultCardType = "task"
	DefaultPriority = 50
)

const (
	MinPriority = 0
	MaxPriority = 100
)

type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RepoURL   string    `json:"repo_url"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	UserType  string    `json:"user_type"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Card struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	CardNumber  int       `json:"card_number"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	CardType    string    `json:"card_type"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

// NewCard carries the caller-supplied fields of a card creation. Empty
// Status/CardType and nil Priority fall back to the defaults.
type NewCard struct {
	ProjectID   int64
	Title       string
	Description *string
	Status      string
	Priority    *int
	CardType    string
	CreatedBy   int64
}

const (
	CommentStatusCreated = "created"
	CommentStatusDeleted = "deleted"
)

type Comment struct {
	ID        int64     `json:"id"`
	CardID    int64     `json:"card_id"`
	Message   string    `json:"message"`
	CreatedBy int64     `json:"created_by"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type CardReference struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card_id"`
	TargetCardID int64     `json:"target_card_id"`
	RefType      string    `json:"ref_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReferenceView is a reference annotated for display: the title of the card
// on the other end of the edge and the label rendered from this card's
// perspective. Incoming edges use the inverse label of the stored type.
type ReferenceView struct {
	CardReference
	OtherCardTitle string `json:"other_card_title"`
	Label          string `json:"label"`
}

type ReferenceList struct {
	Outgoing []ReferenceView `json:"outgoing"`
	Incoming []ReferenceView `json:"incoming"`
}

// CardAudit is one append-only row per card update. Fields that did not
// change repeat the old value on both sides.
type CardAudit struct {
	ID             int64     `json:"id"`
	CardID         int64     `json:"card_id"`
	OldTitle       string    `json:"old_title"`
	NewTitle       string    `json:"new_title"`
	OldDescription *string   `json:"old_description,omitempty"`
	NewDescription *string   `json:"new_description,omitempty"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	OldPriority    int       `json:"old_priority"`
	NewPriority    int       `json:"new_priority"`
	ChangedBy      int64     `json:"changed_by"`
	ChangedAt      time.Time `json:"changed_at"`
}

// CardFilters narrows a card listing. Set filters combine with AND, except
// that a non-empty Search takes over the whole query: the result is a ranked
// full-text match and the other filters are not applied. Existing clients
// depend on that behavior.
type CardFilters struct {
	ID        *int64
	ProjectID *int64
	Status    *string
	Priority  *int
	CardType  *string
	Search    string
}

type Event struct {
	Type      EventType `json:"type"`
	ProjectID int64     `json:"project_id,omitempty"`
	CardID    int64     `json:"card_id,omitempty"`
	CardNum   int       `json:"card_number,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

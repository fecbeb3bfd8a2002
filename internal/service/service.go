package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

type Store interface {
	CreateProject(name, repoURL string) (model.Project, error)
	GetProject(id int64) (model.Project, error)
	ListProjects() ([]model.Project, error)
	CreateUser(username, userType, email string) (model.User, error)
	GetUser(id int64) (model.User, error)
	ListUsers() ([]model.User, error)
	CreateCard(in model.NewCard) (model.Card, error)
	GetCard(id int64) (model.Card, error)
	UpdateCard(id int64, patch model.CardPatch, changedBy int64, callerVersion *int64) (model.Card, error)
	ListCards(filters model.CardFilters) ([]model.Card, error)
	ListAudits(cardID int64) ([]model.CardAudit, error)
	AddComment(cardID int64, message string, authorID int64) (model.Comment, error)
	DeleteComment(commentID int64) (model.Comment, error)
	ListComments(cardID int64) ([]model.Comment, error)
	CreateReference(cardID, targetCardID int64, refType string) (model.ReferenceView, error)
	DeleteReference(cardID, referenceID int64) error
	ListReferences(cardID int64) (model.ReferenceList, error)
}

type Publisher interface {
	Publish(event model.Event)
}

type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

func New(store Store, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) CreateProject(name, repoURL string) (model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return model.Project{}, newError(CodeValidation, "project name cannot be empty", nil)
	}
	if strings.TrimSpace(repoURL) == "" {
		return model.Project{}, newError(CodeValidation, "repo url cannot be empty", nil)
	}
	project, err := s.store.CreateProject(strings.TrimSpace(name), strings.TrimSpace(repoURL))
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return model.Project{}, newError(CodeConflict, "project already exists", err)
		}
		return model.Project{}, newError(CodeInternal, "create project failed", err)
	}
	s.logger.Info("project created", "project_id", project.ID, "repo_url", project.RepoURL)
	s.publish(model.Event{
		Type:      model.EventTypeProjectCreated,
		ProjectID: project.ID,
		Timestamp: time.Now().UTC(),
	})
	return project, nil
}

func (s *Service) GetProject(id int64) (model.Project, error) {
	project, err := s.store.GetProject(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Project{}, newError(CodeNotFound, "project not found", err)
		}
		return model.Project{}, newError(CodeInternal, "get project failed", err)
	}
	return project, nil
}

func (s *Service) ListProjects() ([]model.Project, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return nil, newError(CodeInternal, "list projects failed", err)
	}
	return projects, nil
}

func (s *Service) CreateUser(username, userType, email string) (model.User, error) {
	if strings.TrimSpace(username) == "" {
		return model.User{}, newError(CodeValidation, "username cannot be empty", nil)
	}
	if userType != model.UserTypeHuman && userType != model.UserTypeAI {
		return model.User{}, newError(CodeValidation, fmt.Sprintf("invalid user type: %s", userType), nil)
	}
	user, err := s.store.CreateUser(strings.TrimSpace(username), userType, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return model.User{}, newError(CodeConflict, "user already exists", err)
		}
		return model.User{}, newError(CodeInternal, "create user failed", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "user_type", user.UserType)
	s.publish(model.Event{
		Type:      model.EventTypeUserCreated,
		Timestamp: time.Now().UTC(),
	})
	return user, nil
}

func (s *Service) ListUsers() ([]model.User, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, newError(CodeInternal, "list users failed", err)
	}
	return users, nil
}

func (s *Service) CreateCard(in model.NewCard) (model.Card, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.Card{}, newError(CodeValidation, "card title cannot be empty", nil)
	}
	if in.Status != "" {
		if _, ok := model.AllowedStatus[in.Status]; !ok {
			return model.Card{}, newError(CodeValidation, fmt.Sprintf("invalid status: %s", in.Status), nil)
		}
	}
	if in.CardType != "" {
		if _, ok := model.AllowedCardType[in.CardType]; !ok {
			return model.Card{}, newError(CodeValidation, fmt.Sprintf("invalid card type: %s", in.CardType), nil)
		}
	}
	if in.Priority != nil && (*in.Priority < model.MinPriority || *in.Priority > model.MaxPriority) {
		return model.Card{}, newError(CodeValidation, fmt.Sprintf("priority must be between %d and %d", model.MinPriority, model.MaxPriority), nil)
	}
	card, err := s.store.CreateCard(in)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Card{}, newError(CodeNotFound, "project not found", err)
		}
		return model.Card{}, newError(CodeInternal, "create card failed", err)
	}
	s.logger.Info("card created", "project_id", card.ProjectID, "card_id", card.ID, "card_number", card.CardNumber)
	s.publish(model.Event{
		Type:      model.EventTypeCardCreated,
		ProjectID: card.ProjectID,
		CardID:    card.ID,
		CardNum:   card.CardNumber,
		Timestamp: time.Now().UTC(),
	})
	return card, nil
}

func (s *Service) GetCard(id int64) (model.Card, error) {
	card, err := s.store.GetCard(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Card{}, newError(CodeNotFound, "card not found", err)
		}
		return model.Card{}, newError(CodeInternal, "get card failed", err)
	}
	return card, nil
}

// UpdateCard validates the patch, then applies it under optimistic
// concurrency control. With callerVersion nil the update is unconditional
// (last writer wins); callers that care about conflicts always pass the
// version they last observed.
func (s *Service) UpdateCard(id int64, patch model.CardPatch, changedBy int64, callerVersion *int64) (model.Card, error) {
	if patch.Empty() {
		return model.Card{}, newError(CodeValidation, "no recognized field to update", nil)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Card{}, newError(CodeValidation, "card title cannot be empty", nil)
	}
	if patch.Status != nil {
		if _, ok := model.AllowedStatus[*patch.Status]; !ok {
			return model.Card{}, newError(CodeValidation, fmt.Sprintf("invalid status: %s", *patch.Status), nil)
		}
	}
	if patch.Priority != nil && (*patch.Priority < model.MinPriority || *patch.Priority > model.MaxPriority) {
		return model.Card{}, newError(CodeValidation, fmt.Sprintf("priority must be between %d and %d", model.MinPriority, model.MaxPriority), nil)
	}
	if changedBy <= 0 {
		return model.Card{}, newError(CodeValidation, "changed_by is required", nil)
	}

	card, err := s.store.UpdateCard(id, patch, changedBy, callerVersion)
	if err != nil {
		var conflict *store.VersionConflictError
		switch {
		case errors.As(err, &conflict):
			appErr := newError(CodeVersionConflict, conflict.Error(), err)
			appErr.CurrentVersion = conflict.CurrentVersion
			return model.Card{}, appErr
		case errors.Is(err, store.ErrNotFound):
			return model.Card{}, newError(CodeNotFound, "card not found", err)
		default:
			return model.Card{}, newError(CodeInternal, "update card failed", err)
		}
	}
	s.logger.Info("card updated", "card_id", card.ID, "version", card.Version, "changed_by", changedBy)
	s.publish(model.Event{
		Type:      model.EventTypeCardUpdated,
		ProjectID: card.ProjectID,
		CardID:    card.ID,
		CardNum:   card.CardNumber,
		Timestamp: time.Now().UTC(),
	})
	return card, nil
}

func (s *Service) ListCards(filters model.CardFilters) ([]model.Card, error) {
	if filters.Status != nil {
		if _, ok := model.AllowedStatus[*filters.Status]; !ok {
			return nil, newError(CodeValidation, fmt.Sprintf("invalid status: %s", *filters.Status), nil)
		}
	}
	if filters.CardType != nil {
		if _, ok := model.AllowedCardType[*filters.CardType]; !ok {
			return nil, newError(CodeValidation, fmt.Sprintf("invalid card type: %s", *filters.CardType), nil)
		}
	}
	cards, err := s.store.ListCards(filters)
	if err != nil {
		return nil, newError(CodeInternal, "list cards failed", err)
	}
	return cards, nil
}

func (s *Service) ListAudits(cardID int64) ([]model.CardAudit, error) {
	audits, err := s.store.ListAudits(cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(CodeNotFound, "card not found", err)
		}
		return nil, newError(CodeInternal, "list audits failed", err)
	}
	return audits, nil
}

func (s *Service) AddComment(cardID int64, message string, authorID int64) (model.Comment, error) {
	if strings.TrimSpace(message) == "" {
		return model.Comment{}, newError(CodeValidation, "comment message cannot be empty", nil)
	}
	if authorID <= 0 {
		return model.Comment{}, newError(CodeValidation, "author_id is required", nil)
	}
	comment, err := s.store.AddComment(cardID, message, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, newError(CodeNotFound, "card not found", err)
		}
		return model.Comment{}, newError(CodeInternal, "add comment failed", err)
	}
	s.logger.Info("card commented", "card_id", cardID, "comment_id", comment.ID, "author_id", authorID)
	s.publish(model.Event{
		Type:      model.EventTypeCardCommented,
		CardID:    cardID,
		Timestamp: time.Now().UTC(),
	})
	return comment, nil
}

func (s *Service) DeleteComment(commentID int64) (model.Comment, error) {
	comment, err := s.store.DeleteComment(commentID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCommentDeleted):
			return model.Comment{}, newError(CodeValidation, "comment already deleted", err)
		case errors.Is(err, store.ErrNotFound):
			return model.Comment{}, newError(CodeNotFound, "comment not found", err)
		default:
			return model.Comment{}, newError(CodeInternal, "delete comment failed", err)
		}
	}
	s.logger.Info("comment deleted", "comment_id", comment.ID, "card_id", comment.CardID)
	s.publish(model.Event{
		Type:      model.EventTypeCommentDeleted,
		CardID:    comment.CardID,
		Timestamp: time.Now().UTC(),
	})
	return comment, nil
}

func (s *Service) ListComments(cardID int64) ([]model.Comment, error) {
	comments, err := s.store.ListComments(cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(CodeNotFound, "card not found", err)
		}
		return nil, newError(CodeInternal, "list comments failed", err)
	}
	return comments, nil
}

func (s *Service) CreateReference(cardID, targetCardID int64, refType string) (model.ReferenceView, error) {
	if cardID == targetCardID {
		return model.ReferenceView{}, newError(CodeValidation, "self-reference is not allowed", nil)
	}
	if !model.IsValidReferenceType(refType) {
		return model.ReferenceView{}, newError(CodeValidation, fmt.Sprintf("invalid reference type: %s", refType), nil)
	}
	ref, err := s.store.CreateReference(cardID, targetCardID, refType)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrExists):
			return model.ReferenceView{}, newError(CodeConflict, "reference already exists", err)
		case errors.Is(err, store.ErrNotFound):
			return model.ReferenceView{}, newError(CodeNotFound, err.Error(), err)
		default:
			return model.ReferenceView{}, newError(CodeInternal, "create reference failed", err)
		}
	}
	s.logger.Info("reference created", "card_id", cardID, "target_card_id", targetCardID, "ref_type", refType)
	s.publish(model.Event{
		Type:      model.EventTypeReferenceCreated,
		CardID:    cardID,
		Timestamp: time.Now().UTC(),
	})
	return ref, nil
}

func (s *Service) DeleteReference(cardID, referenceID int64) error {
	if err := s.store.DeleteReference(cardID, referenceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(CodeNotFound, "reference not found", err)
		}
		return newError(CodeInternal, "delete reference failed", err)
	}
	s.logger.Info("reference deleted", "card_id", cardID, "reference_id", referenceID)
	s.publish(model.Event{
		Type:      model.EventTypeReferenceDeleted,
		CardID:    cardID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Service) ListReferences(cardID int64) (model.ReferenceList, error) {
	refs, err := s.store.ListReferences(cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ReferenceList{}, newError(CodeNotFound, "card not found", err)
		}
		return model.ReferenceList{}, newError(CodeInternal, "list references failed", err)
	}
	if refs.Outgoing == nil {
		refs.Outgoing = []model.ReferenceView{}
	}
	if refs.Incoming == nil {
		refs.Incoming = []model.ReferenceView{}
	}
	return refs, nil
}

func (s *Service) publish(event model.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event)
}

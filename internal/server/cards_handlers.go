package server

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

type createCardRequest struct {
	ProjectID   int64   `json:"project_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty" required:"false"`
	Status      string  `json:"status,omitempty" required:"false"`
	Priority    *int    `json:"priority,omitempty" required:"false"`
	CardType    string  `json:"card_type,omitempty" required:"false"`
	CreatedBy   int64   `json:"created_by"`
}

type createCardInput struct {
	Body createCardRequest
}

type createCardOutput struct {
	Body model.Card
}

func (s *Server) createCard(_ context.Context, input *createCardInput) (*createCardOutput, error) {
	card, err := s.svc.CreateCard(model.NewCard{
		ProjectID:   input.Body.ProjectID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Status:      input.Body.Status,
		Priority:    input.Body.Priority,
		CardType:    input.Body.CardType,
		CreatedBy:   input.Body.CreatedBy,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return &createCardOutput{Body: card}, nil
}

type listCardsInput struct {
	ID        *int64  `query:"id"`
	ProjectID *int64  `query:"project_id"`
	Status    *string `query:"status"`
	Priority  *int    `query:"priority"`
	CardType  *string `query:"card_type"`
	Search    string  `query:"search"`
}

type listCardsOutput struct {
	Body struct {
		Cards []model.Card `json:"cards"`
	}
}

func (s *Server) listCards(_ context.Context, input *listCardsInput) (*listCardsOutput, error) {
	cards, err := s.svc.ListCards(model.CardFilters{
		ID:        input.ID,
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Priority:  input.Priority,
		CardType:  input.CardType,
		Search:    input.Search,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	out := &listCardsOutput{}
	out.Body.Cards = cards
	return out, nil
}

type cardPathInput struct {
	ID int64 `path:"id"`
}

type getCardOutput struct {
	Body model.Card
}

func (s *Server) getCard(_ context.Context, input *cardPathInput) (*getCardOutput, error) {
	card, err := s.svc.GetCard(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &getCardOutput{Body: card}, nil
}

type updateCardRequest struct {
	model.CardPatch
	ChangedBy int64  `json:"changed_by"`
	Version   *int64 `json:"version,omitempty" required:"false"`
}

type updateCardInput struct {
	ID   int64 `path:"id"`
	Body updateCardRequest
}

type updateCardOutput struct {
	Body model.Card
}

func (s *Server) updateCard(_ context.Context, input *updateCardInput) (*updateCardOutput, error) {
	card, err := s.svc.UpdateCard(input.ID, input.Body.CardPatch, input.Body.ChangedBy, input.Body.Version)
	if err != nil {
		return nil, serviceError(err)
	}
	return &updateCardOutput{Body: card}, nil
}

type listAuditsOutput struct {
	Body struct {
		Audits []model.CardAudit `json:"audits"`
	}
}

func (s *Server) listAudits(_ context.Context, input *cardPathInput) (*listAuditsOutput, error) {
	audits, err := s.svc.ListAudits(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	out := &listAuditsOutput{}
	out.Body.Audits = audits
	return out, nil
}

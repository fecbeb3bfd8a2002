package server

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

type createReferenceRequest struct {
	TargetCardID int64  `json:"target_card_id"`
	RefType      string `json:"ref_type"`
}

type createReferenceInput struct {
	ID   int64 `path:"id"`
	Body createReferenceRequest
}

type createReferenceOutput struct {
	Body model.ReferenceView
}

func (s *Server) createReference(_ context.Context, input *createReferenceInput) (*createReferenceOutput, error) {
	ref, err := s.svc.CreateReference(input.ID, input.Body.TargetCardID, input.Body.RefType)
	if err != nil {
		return nil, serviceError(err)
	}
	return &createReferenceOutput{Body: ref}, nil
}

type listReferencesOutput struct {
	Body model.ReferenceList
}

func (s *Server) listReferences(_ context.Context, input *cardPathInput) (*listReferencesOutput, error) {
	refs, err := s.svc.ListReferences(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &listReferencesOutput{Body: refs}, nil
}

type deleteReferenceInput struct {
	ID          int64 `path:"id"`
	ReferenceID int64 `path:"referenceId"`
}

type deleteReferenceOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

func (s *Server) deleteReference(_ context.Context, input *deleteReferenceInput) (*deleteReferenceOutput, error) {
	if err := s.svc.DeleteReference(input.ID, input.ReferenceID); err != nil {
		return nil, serviceError(err)
	}
	out := &deleteReferenceOutput{}
	out.Body.Deleted = true
	return out, nil
}

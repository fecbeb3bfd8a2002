package server

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

type addCommentRequest struct {
	Message  string `json:"message"`
	AuthorID int64  `json:"author_id"`
}

type addCommentInput struct {
	ID   int64 `path:"id"`
	Body addCommentRequest
}

type addCommentOutput struct {
	Body model.Comment
}

func (s *Server) addComment(_ context.Context, input *addCommentInput) (*addCommentOutput, error) {
	comment, err := s.svc.AddComment(input.ID, input.Body.Message, input.Body.AuthorID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &addCommentOutput{Body: comment}, nil
}

type listCommentsOutput struct {
	Body struct {
		Comments []model.Comment `json:"comments"`
	}
}

func (s *Server) listComments(_ context.Context, input *cardPathInput) (*listCommentsOutput, error) {
	comments, err := s.svc.ListComments(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	out := &listCommentsOutput{}
	out.Body.Comments = comments
	return out, nil
}

type deleteCommentInput struct {
	ID int64 `path:"id"`
}

type deleteCommentOutput struct {
	Body model.Comment
}

func (s *Server) deleteComment(_ context.Context, input *deleteCommentInput) (*deleteCommentOutput, error) {
	comment, err := s.svc.DeleteComment(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &deleteCommentOutput{Body: comment}, nil
}

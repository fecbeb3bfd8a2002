package server

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

type createProjectRequest struct {
	Name    string `json:"name"`
	RepoURL string `json:"repo_url"`
}

type createProjectInput struct {
	Body createProjectRequest
}

type createProjectOutput struct {
	Body model.Project
}

func (s *Server) createProject(_ context.Context, input *createProjectInput) (*createProjectOutput, error) {
	project, err := s.svc.CreateProject(input.Body.Name, input.Body.RepoURL)
	if err != nil {
		return nil, serviceError(err)
	}
	return &createProjectOutput{Body: project}, nil
}

type listProjectsOutput struct {
	Body struct {
		Projects []model.Project `json:"projects"`
	}
}

func (s *Server) listProjects(_ context.Context, _ *struct{}) (*listProjectsOutput, error) {
	projects, err := s.svc.ListProjects()
	if err != nil {
		return nil, serviceError(err)
	}
	out := &listProjectsOutput{}
	out.Body.Projects = projects
	return out, nil
}

type getProjectInput struct {
	ID int64 `path:"id"`
}

type getProjectOutput struct {
	Body model.Project
}

func (s *Server) getProject(_ context.Context, input *getProjectInput) (*getProjectOutput, error) {
	project, err := s.svc.GetProject(input.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return &getProjectOutput{Body: project}, nil
}

type createUserRequest struct {
	Username string `json:"username"`
	UserType string `json:"user_type" enum:"human,ai"`
	Email    string `json:"email,omitempty" required:"false"`
}

type createUserInput struct {
	Body createUserRequest
}

type createUserOutput struct {
	Body model.User
}

func (s *Server) createUser(_ context.Context, input *createUserInput) (*createUserOutput, error) {
	user, err := s.svc.CreateUser(input.Body.Username, input.Body.UserType, input.Body.Email)
	if err != nil {
		return nil, serviceError(err)
	}
	return &createUserOutput{Body: user}, nil
}

type listUsersOutput struct {
	Body struct {
		Users []model.User `json:"users"`
	}
}

func (s *Server) listUsers(_ context.Context, _ *struct{}) (*listUsersOutput, error) {
	users, err := s.svc.ListUsers()
	if err != nil {
		return nil, serviceError(err)
	}
	out := &listUsersOutput{}
	out.Body.Users = users
	return out, nil
}

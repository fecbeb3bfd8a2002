package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/store"
)

type Options struct {
	SQLitePath string
	Logger     *slog.Logger
}

type Server struct {
	store  *store.Store
	svc    *service.Service
	hub    *hub
	logger *slog.Logger
	router *chi.Mux
	api    huma.API
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(opts.SQLitePath)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	s := &Server{
		store:  st,
		hub:    newHub(),
		logger: logger,
		router: router,
	}
	s.svc = service.New(st, s.hub, logger)
	s.routes()
	s.logger.Info("server initialized", "sqlite_path", opts.SQLitePath)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.api.OpenAPI()
}

func (s *Server) Close() error {
	s.hub.Close()
	return s.store.Close()
}

func (s *Server) routes() {
	s.router.Use(s.requestLoggingMiddleware)

	config := huma.DefaultConfig("Taskdeck API", "1.0.0")
	config.OpenAPIPath = "/openapi"
	config.DocsPath = ""

	s.api = humachi.New(s.router, config)
	s.registerOperations()
	s.registerWebSocketOperationDocs()

	// Websocket upgrade endpoint remains a native HTTP handler.
	s.router.Get("/ws", s.hub.ServeWS)
}

func (s *Server) registerOperations() {
	huma.Get(s.api, "/health", s.health)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createProject",
		Method:        http.MethodPost,
		Path:          "/projects",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create project",
		Errors:        []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError},
	}, s.createProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProjects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusInternalServerError},
	}, s.listProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProject",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.getProject)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/users",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create user",
		Errors:        []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError},
	}, s.createUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Errors:      []int{http.StatusInternalServerError},
	}, s.listUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCard",
		Method:        http.MethodPost,
		Path:          "/cards",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create card",
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.createCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCards",
		Method:      http.MethodGet,
		Path:        "/cards",
		Summary:     "List cards with filters or ranked full-text search",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, s.listCards)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCard",
		Method:      http.MethodGet,
		Path:        "/cards/{id}",
		Summary:     "Get card",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.getCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCard",
		Method:      http.MethodPatch,
		Path:        "/cards/{id}",
		Summary:     "Update card fields with optional optimistic version check",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, s.updateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAudits",
		Method:      http.MethodGet,
		Path:        "/cards/{id}/audits",
		Summary:     "List card audit trail",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.listAudits)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/cards/{id}/comments",
		DefaultStatus: http.StatusCreated,
		Summary:       "Add card comment",
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.addComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/cards/{id}/comments",
		Summary:     "List card comments",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.listComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/comments/{id}",
		Summary:     "Soft-delete a comment",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, s.deleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReference",
		Method:        http.MethodPost,
		Path:          "/cards/{id}/references",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create typed reference to another card",
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, s.createReference)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReferences",
		Method:      http.MethodGet,
		Path:        "/cards/{id}/references",
		Summary:     "List outgoing and incoming references",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.listReferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReference",
		Method:      http.MethodDelete,
		Path:        "/cards/{id}/references/{referenceId}",
		Summary:     "Delete reference",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, s.deleteReference)
}

func (s *Server) registerWebSocketOperationDocs() {
	oapi := s.api.OpenAPI()
	if oapi.Paths == nil {
		oapi.Paths = map[string]*huma.PathItem{}
	}
	oapi.Paths["/ws"] = &huma.PathItem{
		Get: &huma.Operation{
			OperationID: "websocketEvents",
			Summary:     "Websocket event stream",
			Description: "Subscribe to project/card events. Optional project query param filters by project id.",
			Responses: map[string]*huma.Response{
				"101": {Description: "Switching protocols to websocket"},
			},
		},
	}
}

type healthOutput struct {
	Body struct {
		Ok bool `json:"ok"`
	}
}

func (s *Server) health(_ context.Context, _ *struct{}) (*healthOutput, error) {
	out := &healthOutput{}
	out.Body.Ok = true
	return out, nil
}

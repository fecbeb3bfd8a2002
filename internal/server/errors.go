package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/taskdeck/taskdeck/internal/service"
)

// serviceError maps the service error taxonomy onto HTTP problem responses.
// Version conflicts carry the stored version as an error detail so clients
// can re-fetch and retry without another round trip.
func serviceError(err error) error {
	msg := service.MessageOf(err)
	switch service.CodeOf(err) {
	case service.CodeValidation:
		return huma.Error400BadRequest(msg)
	case service.CodeNotFound:
		return huma.Error404NotFound(msg)
	case service.CodeConflict:
		return huma.Error409Conflict(msg)
	case service.CodeVersionConflict:
		return huma.Error409Conflict(msg, &huma.ErrorDetail{
			Message:  "stale version",
			Location: "body.version",
			Value:    service.CurrentVersionOf(err),
		})
	default:
		return huma.Error500InternalServerError(msg)
	}
}

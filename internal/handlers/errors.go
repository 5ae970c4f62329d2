package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// writeError maps the service error taxonomy onto HTTP responses. Anything
// unrecognised is recorded on the context for ErrorHandler to log and is
// answered with a generic 500.
func writeError(c *gin.Context, err error) {
	var (
		verr *models.ValidationError
		aerr *models.AuthorizationError
		nerr *models.NotFoundError
		cerr *models.ConflictError
		terr *models.InvalidTransitionError
	)

	switch {
	case errors.As(err, &verr):
		resp := models.ErrorResponse(verr.Error())
		resp.Code = "validation_error"
		resp.Field = verr.Field
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &aerr):
		resp := models.ErrorResponse(aerr.Error())
		resp.Code = "not_permitted"
		c.JSON(http.StatusForbidden, resp)
	case errors.As(err, &nerr):
		resp := models.ErrorResponse(nerr.Error())
		resp.Code = "not_found"
		c.JSON(http.StatusNotFound, resp)
	case errors.As(err, &cerr):
		resp := models.ErrorResponse(cerr.Error())
		resp.Code = "conflict"
		resp.Field = cerr.Field
		c.JSON(http.StatusConflict, resp)
	case errors.As(err, &terr):
		resp := models.ErrorResponse(terr.Error())
		resp.Code = "invalid_transition"
		c.JSON(http.StatusConflict, resp)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error"))
	}
}

func badRequest(c *gin.Context, err error) {
	resp := models.ErrorResponse("Invalid request body")
	resp.Message = err.Error()
	resp.Code = "invalid_body"
	c.JSON(http.StatusBadRequest, resp)
}

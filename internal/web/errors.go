// ABOUTME: Maps domain errors to HTTP status codes and JSON bodies.
// ABOUTME: Unexpected errors are logged with the request id.
package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/report"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/views"
)

// HTTPError is the body of every error response.
type HTTPError struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict), errors.Is(err, views.ErrStale):
		return http.StatusConflict
	case errors.Is(err, report.ErrNoElements):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err with its mapped status. Server errors are logged and
// only the request id is exposed.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, HTTPError{Error: err.Error()})
		return
	}

	id := requestid.Get(c)
	log.Error().Str("request-id", id).Err(err).Msgf("%T", err)
	c.AbortWithStatusJSON(status, HTTPError{
		Error: fmt.Sprintf("an error occurred on the server during your request, the request id is '%s'", id),
	})
}

// abortBind reports a malformed request body.
func abortBind(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, HTTPError{Error: "invalid request body: " + err.Error()})
}

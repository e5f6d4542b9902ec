// Package httpkit holds the gin middleware and JSON response helpers shared
// by every HTTP module.
package httpkit

import (
	"errors"
	"net/http"

	"dashboard_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal error"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) { c.JSON(status, payload) }

func OK(c *gin.Context, payload any) { c.JSON(http.StatusOK, payload) }

// Error writes an ErrorResponse tagged with the request id.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: c.GetString(ContextRequestIDKey),
	})
}

// HandleError writes err and reports whether there was one. The status comes
// from the first *apperr.Error in the chain; anything else is a 500 whose
// text stays in the logs. Server-side failures are attached to the gin
// context so RequestLogger records them.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	status, message := http.StatusInternalServerError, msgInternal
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status, message = appErr.HTTPStatus(), appErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Error(c, status, message, nil)
	return true
}

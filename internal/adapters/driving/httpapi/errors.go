package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/logger"
)

// Envelope is the response body of every /athena route.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failure to the caller.
type ErrorBody struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Component string `json:"component,omitempty"`
}

func renderData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// renderError writes err as an error envelope. Unexpected errors are
// logged with their cause and shown to callers with a generic message.
func renderError(c *gin.Context, err error) {
	appErr := domain.AsAppError(err, "http."+c.FullPath())

	status := appErr.Status
	if status == 0 {
		status = appErr.Kind.Status()
	}

	message := appErr.Message
	if !appErr.Expected {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
		if message == "" {
			message = "unexpected error"
		}
	} else {
		logger.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, appErr)
	}

	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Message:   message,
			Status:    status,
			Component: appErr.Component,
		},
	})
}

func recoverPanic(c *gin.Context, recovered any) {
	renderError(c, &domain.AppError{
		Kind:      domain.KindInternal,
		Message:   "unexpected error",
		Status:    http.StatusInternalServerError,
		Component: "http.recovery",
	})
	logger.Error("panic serving %s: %v", c.Request.URL.Path, recovered)
}

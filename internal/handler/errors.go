package handler

import (
	"errors"
	"net/http"
	"strings"

	"roleconsole/internal/service"
	"roleconsole/pkg/apperror"
	"roleconsole/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	var validation *apperror.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProtectedRole):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case apperror.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	var validation *apperror.ValidationError
	if errors.As(err, &validation) {
		fields := make([]string, 0, len(validation.Fields))
		for _, f := range validation.Fields {
			fields = append(fields, f.Field+" failed '"+f.Tag+"'")
		}
		msg = "Validation failed: " + strings.Join(fields, ", ")
	} else if status == http.StatusBadGateway || status == http.StatusInternalServerError {
		// Store details stay in the logs.
		msg = http.StatusText(status)
	}

	c.JSON(status, response.Error(status, msg))
}

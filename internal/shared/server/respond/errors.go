package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Error logs and sends a standardized error response. message is shown to
// clients, so callers pass a generic text for server-side failures.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	writeError(c, status, code, message, details, nil)
}

// ErrorCause is Error for server-side failures: cause is logged with the
// response but never sent to the client.
func ErrorCause(c *gin.Context, status int, code, message string, cause error) {
	writeError(c, status, code, message, nil, cause)
}

func writeError(c *gin.Context, status int, code, message string, details interface{}, cause error) {
	fields := map[string]any{
		"status":         status,
		"code":           code,
		"client_message": message,
		"path":           c.Request.URL.Path,
		"method":         c.Request.Method,
		"request_id":     c.GetString("requestId"),
	}
	if cause != nil {
		fields["error"] = cause
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Success writes {"success":true} merged with extra fields.
func Success(c *gin.Context, status int, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	JSON(c, status, body)
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ErrInternal = "internal_error"
	ErrDB       = "db_error"
)

// OK writes a 200 with ok:true merged over the payload fields.
func OK(c *gin.Context, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func Error(c *gin.Context, status int, code, detail string) {
	body := gin.H{"ok": false, "error": code}
	if detail != "" {
		body["detail"] = detail
	}
	c.JSON(status, body)
}

// Validation writes a 400 echoing the offending payload back to the caller.
func Validation(c *gin.Context, message string, received interface{}) {
	body := gin.H{"error": message}
	if received != nil {
		body["received"] = received
	}
	c.JSON(http.StatusBadRequest, body)
}

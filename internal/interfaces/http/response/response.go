package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// Message sends a success response carrying only a message
func Message(c *gin.Context, status int, message string) {
	Success(c, status, gin.H{"message": message})
}

// Error sends an error response. Field-level validation failures are listed under "errors".
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	if appErr == nil {
		appErr = domainerrors.InternalError(nil)
	}
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	body := gin.H{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	var verr *domainerrors.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		body["errors"] = verr.Fields
	}
	c.JSON(appErr.Status, body)
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}

package api

import (
	"github.com/gin-gonic/gin"

	"treinopp/internal/apperr"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"INVALID_INPUT"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// RespondError writes err as an ErrorResponse using the status of its apperr kind.
// Wrapped causes are never written to the client.
func RespondError(c *gin.Context, err error) {
	appErr := apperr.FromError(err)
	c.JSON(appErr.Status, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crece-pos/internal/gateway/middleware"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// msgOr unwraps the service-layer optional message.
func msgOr(message *string, fallback string) string {
	if message != nil {
		return *message
	}
	return fallback
}

// mustOrgID aborts with 401 when the auth middleware did not run.
func mustOrgID(c *gin.Context) (int64, bool) {
	id, ok := middleware.OrganizationID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Missing organization context"))
	}
	return id, ok
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	userhandler "crece-pos/internal/services/user/handler"
)

type AuthHTTPHandler struct {
	users *userhandler.UserHandler
}

func NewAuthHTTPHandler(users *userhandler.UserHandler) *AuthHTTPHandler {
	return &AuthHTTPHandler{users: users}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username         string `json:"username" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	OrganizationName string `json:"organization_name" binding:"required"`
}

func (h *AuthHTTPHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.users.Register(ctx, userhandler.RegisterRequest{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, errorResponse(msgOr(resp.Message, "Registration failed")))
		return
	}

	c.JSON(http.StatusCreated, successResponse(msgOr(resp.Message, "Registration successful"), map[string]interface{}{
		"token":           resp.Token,
		"expires_at":      resp.ExpiresAt,
		"user_id":         resp.UserID,
		"organization_id": resp.OrganizationID,
		"email":           resp.Email,
	}))
}

func (h *AuthHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.users.Authenticate(ctx, userhandler.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Authentication service error"))
		return
	}
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, errorResponse(msgOr(resp.Message, "Invalid credentials")))
		return
	}

	c.JSON(http.StatusOK, successResponse(msgOr(resp.Message, "Login successful"), map[string]interface{}{
		"token":           resp.Token,
		"expires_at":      resp.ExpiresAt,
		"user_id":         resp.UserID,
		"organization_id": resp.OrganizationID,
		"email":           resp.Email,
	}))
}

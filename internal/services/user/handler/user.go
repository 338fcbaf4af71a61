package handler

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"crece-pos/internal/database/models"
	"crece-pos/internal/utils"
)

// --- Helpers ---
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type UserHandler struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{db: db, tokenTTL: tokenTTL}
}

type RegisterRequest struct {
	Username         string
	Email            string
	Password         string
	OrganizationName string
}

type LoginRequest struct {
	Username string
	Password string
}

type AuthResponse struct {
	Success        bool
	Message        *string
	Token          string
	ExpiresAt      time.Time
	UserID         int64
	OrganizationID int64
	Email          string
}

func (h *UserHandler) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var existing models.User
	err := h.db.WithContext(ctx).
		Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error
	if err == nil {
		return &AuthResponse{Success: false, Message: strPtr("Username or email already registered")}, nil
	} else if err != gorm.ErrRecordNotFound {
		return &AuthResponse{Success: false, Message: strPtr("Database error")}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Failed to hash password")}, err
	}

	org := models.Organization{
		Name:       req.OrganizationName,
		OwnerEmail: req.Email,
	}
	if err := h.db.WithContext(ctx).Create(&org).Error; err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Failed to create organization")}, err
	}

	user := models.User{
		OrganizationID: org.ID,
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hashed),
		IsActive:       true,
	}
	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Failed to create user: " + err.Error())}, err
	}

	token, exp, err := utils.GenerateToken(user.ID, org.ID, user.Email, h.tokenTTL)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Failed to generate token")}, err
	}

	return &AuthResponse{
		Success:        true,
		Message:        strPtr("Registration successful"),
		Token:          token,
		ExpiresAt:      exp,
		UserID:         user.ID,
		OrganizationID: org.ID,
		Email:          user.Email,
	}, nil
}

func (h *UserHandler) Authenticate(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user models.User
	if err := h.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", req.Username, true).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &AuthResponse{Success: false, Message: strPtr("Invalid credentials")}, nil
		}
		return &AuthResponse{Success: false, Message: strPtr("Database error")}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Invalid credentials")}, nil
	}

	now := time.Now()
	h.db.WithContext(ctx).Model(&user).Update("last_login", now)

	token, exp, err := utils.GenerateToken(user.ID, user.OrganizationID, user.Email, h.tokenTTL)
	if err != nil {
		return &AuthResponse{Success: false, Message: strPtr("Failed to generate token")}, err
	}

	return &AuthResponse{
		Success:        true,
		Message:        strPtr("Login successful"),
		Token:          token,
		ExpiresAt:      exp,
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
	}, nil
}

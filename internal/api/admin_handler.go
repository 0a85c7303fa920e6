package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/domain"
	"github.com/simonhust/trailer/internal/logger"
)

// AdminHandler serves login and admin management endpoints.
type AdminHandler struct {
	repo *database.AdminRepository
	jwt  *auth.JWTManager
	log  logger.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(repo *database.AdminRepository, jwt *auth.JWTManager, log logger.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, jwt: jwt, log: log}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login.
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	admin, err := h.repo.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.log.Warn("login failed",
				logger.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error("login error", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(admin)
	if err != nil {
		h.log.Error("failed to generate token",
			logger.String("username", admin.Username),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.log.Info("admin logged in",
		logger.String("username", admin.Username),
		logger.String("role", string(admin.Role)))

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"username":   admin.Username,
		"role":       admin.Role,
	})
}

// CreateAdminRequest is the admin creation payload.
type CreateAdminRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Create handles POST /api/v1/admins. Only super admins may create
// secondary admins.
func (h *AdminHandler) Create(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password (min 8 chars) are required"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create admin"})
		return
	}

	actor := c.GetString(ContextKeyUsername)
	err = h.repo.CreateSecondary(c.Request.Context(), actor, req.Username, passwordHash)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "only a super admin may create admins"})
		case errors.Is(err, domain.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.log.Error("failed to create admin",
				logger.String("username", req.Username),
				logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create admin"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": req.Username, "role": domain.RoleSecondary})
}

// List handles GET /api/v1/admins.
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list admins", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list admins"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(admins),
		"admins": admins,
	})
}

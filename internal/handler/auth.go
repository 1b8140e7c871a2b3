package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/middleware"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"github.com/psds-microservice/backoffice-service/internal/session"
	"go.uber.org/zap"
)

type LoginService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

type AdminRegistrar interface {
	RegisterAdmin(ctx context.Context, in service.AdminInput) (*model.Admin, error)
}

type AuthHandler struct {
	login        LoginService
	registrar    AdminRegistrar
	ttl          time.Duration
	secureCookie bool
	log          *zap.Logger
}

func NewAuthHandler(login LoginService, registrar AdminRegistrar, ttl time.Duration, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{login: login, registrar: registrar, ttl: ttl, secureCookie: secureCookie, log: log}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UnifiedLogin godoc
// POST /api/admin/unified-login
func (h *AuthHandler) UnifiedLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	res, err := h.login.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	session.SetCookie(c.Writer, res.Token, h.ttl, h.secureCookie)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       res.User,
		"redirectTo": res.RedirectTo,
	})
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register is the legacy open admin sign-up; disabled unless configured.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.registrar.RegisterAdmin(c.Request.Context(), service.AdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Admin registered", "admin": a})
}

// CheckCookie reports who the session cookie belongs to. Runs behind middleware.Session.
func (h *AuthHandler) CheckCookie(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Logout only drops the cookie; the token stays cryptographically valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	session.ClearCookie(c.Writer, h.secureCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

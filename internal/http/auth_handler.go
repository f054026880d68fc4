package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"member-auth/internal/service"
)

// AuthHandler expone registro, verificacion de email, login por OTP y logout.
type AuthHandler struct {
	logger *zap.Logger
	auth   *service.AuthService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		auth:   auth,
	}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		FullName    string `json:"full_name" binding:"required"`
		Contact     string `json:"contact"`
		DateOfBirth string `json:"date_of_birth" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
		return
	}

	err = h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		FullName:    req.FullName,
		Contact:     req.Contact,
		DateOfBirth: dob,
	})
	if err != nil {
		h.writeError(c, "register", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// VerifyEmail maneja POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid verify email request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.writeError(c, "verify email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// SendOTP maneja POST /auth/otp/send.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.auth.SendOTP(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, "send otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// VerifyOTP maneja POST /auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(c, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout maneja POST /auth/logout. Acepta el token en el header Authorization
// o en el body; un token invalido igual responde 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		var req struct {
			Token string `json:"token"`
		}
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// writeError traduce los errores del servicio a codigos HTTP.
func (h *AuthHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOTPExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOTPInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTooManyAttempts), errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotificationFailure):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}

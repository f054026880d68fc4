package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"member-auth/internal/service"
)

type MemberHandler struct {
	logger *zap.Logger
	auth   *service.AuthService
}

func NewMemberHandler(logger *zap.Logger, auth *service.AuthService) *MemberHandler {
	return &MemberHandler{
		logger: logger,
		auth:   auth,
	}
}

// Me maneja GET /members/me. Requiere JWTAuthMiddleware.
func (h *MemberHandler) Me(c *gin.Context) {
	memberID, ok := GetAuthMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	member, err := h.auth.Profile(c.Request.Context(), memberID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		h.logger.Error("get member profile failed", zap.Error(err), zap.String("member_id", memberID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member_id":     member.ID,
		"full_name":     member.FullName,
		"email":         member.Email,
		"contact":       member.Contact,
		"date_of_birth": member.DateOfBirth.Format("2006-01-02"),
		"created_at":    member.CreatedAt,
	})
}

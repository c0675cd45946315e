package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/paygrid/tx_engine_app/internal/dto"
	"github.com/paygrid/tx_engine_app/internal/middleware"
	"github.com/paygrid/tx_engine_app/internal/platform/config"
)

// authHandler exchanges the operator API key for short-lived bearer tokens.
type authHandler struct {
	cfg *config.Config
}

func newAuthHandler(cfg *config.Config) *authHandler {
	return &authHandler{cfg: cfg}
}

// registerAuthRoutes registers the public token-issuance route.
func registerAuthRoutes(r *gin.Engine, cfg *config.Config) {
	h := newAuthHandler(cfg)

	auth := r.Group("/auth")
	{
		auth.POST("/token", h.issueToken)
	}
}

// issueToken validates the supplied API key and returns a signed JWT whose
// subject identifies the operator.
func (h *authHandler) issueToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IssueToken", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.APIKey)) != 1 {
		logger.Warn("Token request with invalid API key")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.cfg.JWTExpiryDuration)
	claims := jwt.RegisteredClaims{
		Subject:   "operator",
		Issuer:    h.cfg.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		logger.Error("Failed to sign token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Token: signed, ExpiresAt: expiresAt})
}

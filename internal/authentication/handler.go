package authentication

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	IssueToken(claim map[string]interface{}) (string, error)
}

// TokenResponse carries a signed access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AuthHandler handles the token endpoint.
type AuthHandler struct {
	issuer TokenIssuer
	logger *zap.Logger
}

func NewAuthHandler(issuer TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, logger: logger}
}

// IssueToken godoc
// @Summary      Issue token
// @Description  Signs the posted claim object, normally {"email": "..."}, for one hour
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      object  true  "Identity claim"
// @Success      200      {object}  TokenResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /jwt [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var claim map[string]interface{}
	if err := c.ShouldBindJSON(&claim); err != nil || claim == nil {
		h.logger.Warn("invalid token payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "claim must be a JSON object"})
		return
	}
	token, err := h.issuer.IssueToken(claim)
	if err != nil {
		h.logger.Error("IssueToken failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

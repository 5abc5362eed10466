package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

// SignupRequest is the payload sent by the client after its first login.
// Any role in the payload is ignored; new identities are users.
type SignupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required,email"`
	Photo string `json:"photo"`
}

// SetRoleRequest changes the role of an identity.
type SetRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

// SignupExistsResponse is returned when the email is already registered.
type SignupExistsResponse struct {
	Message    string  `json:"message"`
	InsertedID *string `json:"insertedId"`
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// List godoc
// @Summary      List identities
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   Identity
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *Handler) List(c *gin.Context) {
	identities, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("service.List failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch users"})
		return
	}
	c.JSON(http.StatusOK, identities)
}

// IsAdmin godoc
// @Summary      Check own admin role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller email"
// @Success      200    {object}  map[string]bool
// @Failure      403    {object}  map[string]string
// @Router       /users/admin/{email} [get]
func (h *Handler) IsAdmin(c *gin.Context) {
	h.hasRole(c, Admin, "admin")
}

// IsAgent godoc
// @Summary      Check own agent role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller email"
// @Success      200    {object}  map[string]bool
// @Failure      403    {object}  map[string]string
// @Router       /users/agent/{email} [get]
func (h *Handler) IsAgent(c *gin.Context) {
	h.hasRole(c, Agent, "agent")
}

func (h *Handler) hasRole(c *gin.Context, role Role, key string) {
	ok, err := h.service.HasRole(c.Request.Context(), c.Param("email"), role)
	if err != nil {
		h.logger.Error("service.HasRole failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not check role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{key: ok})
}

// Signup godoc
// @Summary      Register identity
// @Description  Stores the identity once per email; repeated calls are no-ops
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      SignupRequest  true  "Identity"
// @Success      200      {object}  store.InsertResult
// @Failure      400      {object}  map[string]string
// @Router       /users [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid email"})
		return
	}
	res, created, err := h.service.Signup(c.Request.Context(), req.Name, req.Email, req.Photo)
	switch {
	case err == nil && created:
		c.JSON(http.StatusOK, res)
	case err == nil:
		c.JSON(http.StatusOK, SignupExistsResponse{Message: "user already exists"})
	case errors.Is(err, ErrInvalidEmailFormat):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid email"})
	default:
		h.logger.Error("service.Signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create user"})
	}
}

// MakeAdmin godoc
// @Summary      Promote to admin
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity ID"
// @Success      200  {object}  store.UpdateResult
// @Router       /users/admin/{id} [patch]
func (h *Handler) MakeAdmin(c *gin.Context) {
	h.setRole(c, Admin)
}

// SetRole godoc
// @Summary      Change role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Identity ID"
// @Param        payload  body      SetRoleRequest  true  "New role"
// @Success      200      {object}  store.UpdateResult
// @Failure      400      {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *Handler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid role payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid role"})
		return
	}
	h.setRole(c, req.Role)
}

func (h *Handler) setRole(c *gin.Context, role Role) {
	res, err := h.service.SetRole(c.Request.Context(), c.Param("id"), role)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid role"})
	default:
		h.logger.Error("service.SetRole failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not update user"})
	}
}

// Delete godoc
// @Summary      Delete identity
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity ID"
// @Success      200  {object}  store.DeleteResult
// @Router       /users/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	default:
		h.logger.Error("service.Delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete user"})
	}
}

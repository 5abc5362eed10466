package review

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/authentication"
	"github.com/mehmetcc/homefinders-service/internal/identity"
	"github.com/mehmetcc/homefinders-service/internal/store"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// List godoc
// @Summary      List reviews
// @Tags         reviews
// @Produce      json
// @Success      200  {array}  Review
// @Router       /reviews [get]
func (h *Handler) List(c *gin.Context) {
	reviews, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// ListByEmail godoc
// @Summary      Reviews written by a user
// @Tags         reviews
// @Produce      json
// @Param        email  path   string  true  "Author email"
// @Success      200    {array}  Review
// @Router       /reviews/{email} [get]
func (h *Handler) ListByEmail(c *gin.Context) {
	reviews, err := h.service.ListByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// Create godoc
// @Summary      Write a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateRequest  true  "Review"
// @Success      200      {object}  store.InsertResult
// @Failure      400      {object}  map[string]string
// @Router       /reviews [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid review payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid review payload"})
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not create review"})
	}
}

// Delete godoc
// @Summary      Delete review
// @Description  Only the author or an admin may delete a review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  store.DeleteResult
// @Failure      403  {object}  map[string]string
// @Router       /reviews/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := authentication.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
		return
	}
	remover := Remover{Email: caller.Email, Admin: caller.Role == identity.Admin}
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"), remover)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
	default:
		h.logger.Error("failed to delete review", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete review"})
	}
}

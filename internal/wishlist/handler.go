package wishlist

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ListByEmail godoc
// @Summary      Wishlist of a user
// @Tags         wishlist
// @Produce      json
// @Param        email  query  string  true  "User email"
// @Success      200    {array}  Entry
// @Router       /wishlist [get]
func (h *Handler) ListByEmail(c *gin.Context) {
	entries, err := h.service.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch wishlist"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Get godoc
// @Summary      Get wishlist entry
// @Tags         wishlist
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  Entry
// @Router       /wishlist/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, entry)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, nil)
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	default:
		h.logger.Error("failed to get wishlist entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch wishlist entry"})
	}
}

// Create godoc
// @Summary      Save a listing
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateRequest  true  "Entry"
// @Success      200      {object}  store.InsertResult
// @Router       /wishlist [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid wishlist payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid wishlist payload"})
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not save wishlist entry"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete godoc
// @Summary      Remove wishlist entry
// @Tags         wishlist
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  store.DeleteResult
// @Router       /wishlist/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not delete wishlist entry"})
	}
}

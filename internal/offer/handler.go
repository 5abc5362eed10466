package offer

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

// List godoc
// @Summary      List offers
// @Tags         offers
// @Produce      json
// @Success      200  {array}  Offer
// @Router       /offer_requests [get]
func (h *Handler) List(c *gin.Context) {
	offers, err := h.service.List(c.Request.Context())
	h.respondList(c, offers, err)
}

// ByAgent godoc
// @Summary      Offers on an agent's listings
// @Tags         offers
// @Produce      json
// @Param        email  path   string  true  "Owner email"
// @Success      200    {array}  Offer
// @Router       /offer_requests/agent/{email} [get]
func (h *Handler) ByAgent(c *gin.Context) {
	offers, err := h.service.ByAgent(c.Request.Context(), c.Param("email"))
	h.respondList(c, offers, err)
}

// ByBuyer godoc
// @Summary      Offers made by a buyer
// @Tags         offers
// @Produce      json
// @Param        email  path   string  true  "Buyer email"
// @Success      200    {array}  Offer
// @Router       /offer_requests/user/{email} [get]
func (h *Handler) ByBuyer(c *gin.Context) {
	offers, err := h.service.ByBuyer(c.Request.Context(), c.Param("email"))
	h.respondList(c, offers, err)
}

func (h *Handler) respondList(c *gin.Context, offers []Offer, err error) {
	if err != nil {
		h.fail(c, err, "could not fetch offers")
		return
	}
	c.JSON(http.StatusOK, offers)
}

// Get godoc
// @Summary      Get offer
// @Description  Responds null when no offer has the id
// @Tags         offers
// @Produce      json
// @Param        id   path      string  true  "Offer ID"
// @Success      200  {object}  Offer
// @Failure      400  {object}  map[string]string
// @Router       /offer_requests/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	o, err := h.service.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, o)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, nil)
	default:
		h.fail(c, err, "could not fetch offer")
	}
}

// Create godoc
// @Summary      Make an offer
// @Tags         offers
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateRequest  true  "Offer"
// @Success      200      {object}  store.InsertResult
// @Failure      400      {object}  map[string]string
// @Router       /offer_requests [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid offer payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid offer payload"})
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "could not create offer")
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetStatus godoc
// @Summary      Accept or reject an offer
// @Tags         offers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true  "Offer ID"
// @Param        payload  body      StatusUpdate  true  "Status"
// @Success      200      {object}  store.UpdateResult
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /offer_requests/{id} [patch]
func (h *Handler) SetStatus(c *gin.Context) {
	var req StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid offer status payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid offer status"})
		return
	}
	res, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req.HomeStatus)
	if err != nil {
		h.fail(c, err, "could not update offer")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete godoc
// @Summary      Delete offer
// @Tags         offers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Offer ID"
// @Success      200  {object}  store.DeleteResult
// @Router       /offer_requests/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "could not delete offer")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrPaidViaCheckout):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		h.logger.Error("offer request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": message})
	}
}

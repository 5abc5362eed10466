package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreateIntent godoc
// @Summary      Create payment intent
// @Description  Converts price to cents and opens a card payment intent in usd
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Key forwarded to the processor"
// @Param        payload          body      IntentRequest  true   "Price"
// @Success      200              {object}  IntentResponse
// @Failure      400              {object}  map[string]string
// @Failure      502              {object}  map[string]string
// @Router       /create-payment-intent [post]
func (h *Handler) CreateIntent(c *gin.Context) {
	var req IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment intent payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payment intent payload"})
		return
	}
	secret, err := h.service.CreateIntent(c.Request.Context(), req.Price, c.GetHeader(IdempotencyKeyHeader))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, IntentResponse{ClientSecret: secret})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment processor unavailable"})
	}
}

// ListByEmail godoc
// @Summary      Payments of a buyer
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        email  path   string  true  "Buyer email"
// @Success      200    {array}  Record
// @Router       /payments/{email} [get]
func (h *Handler) ListByEmail(c *gin.Context) {
	records, err := h.service.ListByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not fetch payments"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Complete godoc
// @Summary      Record a payment
// @Description  Stores the payment record and removes the paid offer named by propertyId
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payload  body      CompleteRequest  true  "Payment"
// @Success      200      {object}  Completion
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /payments [post]
func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payment payload"})
		return
	}
	out, err := h.service.Complete(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, out)
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not record payment"})
	}
}

package listing

import (
	"context"
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
// @Summary      List listings
// @Tags         propertys
// @Produce      json
// @Success      200  {array}  Property
// @Router       /propertys [get]
func (h *Handler) List(c *gin.Context) {
	h.respondList(c, h.service.List)
}

// Featured godoc
// @Summary      First four listings
// @Tags         propertys
// @Produce      json
// @Success      200  {array}  Property
// @Router       /propertys/v1 [get]
func (h *Handler) Featured(c *gin.Context) {
	h.respondList(c, h.service.Featured)
}

// Verified godoc
// @Summary      Verified listings
// @Tags         propertys
// @Produce      json
// @Success      200  {array}  Property
// @Router       /propertys/verified [get]
func (h *Handler) Verified(c *gin.Context) {
	h.respondList(c, h.service.Verified)
}

// ListByOwner godoc
// @Summary      Listings of an owner
// @Tags         propertys
// @Produce      json
// @Param        email  path   string  true  "Owner email"
// @Success      200    {array}  Property
// @Router       /propertys/agent/{email} [get]
func (h *Handler) ListByOwner(c *gin.Context) {
	props, err := h.service.ListByOwner(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err, "could not fetch listings")
		return
	}
	c.JSON(http.StatusOK, props)
}

func (h *Handler) respondList(c *gin.Context, list func(ctx context.Context) ([]Property, error)) {
	props, err := list(c.Request.Context())
	if err != nil {
		h.fail(c, err, "could not fetch listings")
		return
	}
	c.JSON(http.StatusOK, props)
}

// Get godoc
// @Summary      Get listing
// @Description  Responds null when no listing has the id
// @Tags         propertys
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  Property
// @Failure      400  {object}  map[string]string
// @Router       /propertys/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, nil)
	default:
		h.fail(c, err, "could not fetch listing")
	}
}

// Create godoc
// @Summary      Create listing
// @Tags         propertys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      PropertyInput  true  "Listing"
// @Success      200      {object}  store.InsertResult
// @Failure      400      {object}  map[string]string
// @Router       /propertys [post]
func (h *Handler) Create(c *gin.Context) {
	var in PropertyInput
	if !h.bind(c, &in) {
		return
	}
	res, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "could not create listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateForAgent godoc
// @Summary      Create listing as agent
// @Description  The listing starts pending and is owned by the caller unless an owner email is given
// @Tags         propertys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      PropertyInput  true  "Listing"
// @Success      200      {object}  store.InsertResult
// @Router       /propertys/agent [post]
func (h *Handler) CreateForAgent(c *gin.Context) {
	caller, ok := authentication.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
		return
	}
	var in PropertyInput
	if !h.bind(c, &in) {
		return
	}
	res, err := h.service.CreateForAgent(c.Request.Context(), in, caller.Email)
	if err != nil {
		h.fail(c, err, "could not create listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Update godoc
// @Summary      Replace listing fields
// @Description  Admins may edit any listing, other callers only their own
// @Tags         propertys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Listing ID"
// @Param        payload  body      PropertyInput  true  "Listing"
// @Success      200      {object}  store.UpdateResult
// @Failure      403      {object}  map[string]string
// @Router       /propertys/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	caller, ok := authentication.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
		return
	}
	var in PropertyInput
	if !h.bind(c, &in) {
		return
	}
	editor := Editor{Email: caller.Email, Admin: caller.Role == identity.Admin}
	res, err := h.service.Update(c.Request.Context(), c.Param("id"), editor, in)
	if err != nil {
		h.fail(c, err, "could not update listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// AgentUpdate godoc
// @Summary      Agent listing update
// @Description  Changes name, location, price range and status
// @Tags         propertys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string       true  "Listing ID"
// @Param        payload  body      AgentUpdate  true  "Fields"
// @Success      200      {object}  store.UpdateResult
// @Router       /propertys/reupdate/{id} [patch]
func (h *Handler) AgentUpdate(c *gin.Context) {
	var in AgentUpdate
	if !h.bind(c, &in) {
		return
	}
	res, err := h.service.AgentUpdate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err, "could not update listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// SetStatus godoc
// @Summary      Set listing status
// @Tags         propertys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true  "Listing ID"
// @Param        payload  body      StatusUpdate  true  "Status"
// @Success      200      {object}  store.UpdateResult
// @Router       /status/{id} [patch]
func (h *Handler) SetStatus(c *gin.Context) {
	var in StatusUpdate
	if !h.bind(c, &in) {
		return
	}
	res, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), in.HomeStatus)
	if err != nil {
		h.fail(c, err, "could not update listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete godoc
// @Summary      Delete listing
// @Tags         propertys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  store.DeleteResult
// @Router       /propertys/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "could not delete listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteOwned godoc
// @Summary      Delete own listing
// @Tags         propertys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  store.DeleteResult
// @Failure      403  {object}  map[string]string
// @Router       /propertys/agent/{id} [delete]
func (h *Handler) DeleteOwned(c *gin.Context) {
	caller, ok := authentication.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
		return
	}
	res, err := h.service.DeleteOwned(c.Request.Context(), c.Param("id"), caller.Email)
	if err != nil {
		h.fail(c, err, "could not delete listing")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.logger.Warn("invalid listing payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid listing payload"})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid status"})
	case errors.Is(err, ErrInvalidPriceRange):
		c.JSON(http.StatusBadRequest, gin.H{"message": "starting price exceeds ending price"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden access"})
	default:
		h.logger.Error("listing request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": message})
	}
}

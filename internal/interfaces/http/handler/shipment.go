package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
)

// ShipmentHandler handles shipment-related API endpoints
type ShipmentHandler struct {
	BaseHandler
	store *appwarehouse.Store
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(store *appwarehouse.Store) *ShipmentHandler {
	return &ShipmentHandler{store: store}
}

// List godoc
// @Summary      List shipments in insertion order
// @Tags         shipments
// @Param        released  query  bool  false  "Filter by release state"
// @Param        cleared   query  bool  false  "Filter by clearance state"
// @Router       /shipments [get]
func (h *ShipmentHandler) List(c *gin.Context) {
	shipments := h.store.Shipments()

	for _, q := range []struct {
		name string
		get  func(warehouse.Shipment) bool
	}{
		{"released", func(s warehouse.Shipment) bool { return s.Released }},
		{"cleared", func(s warehouse.Shipment) bool { return s.Cleared }},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		want, err := strconv.ParseBool(raw)
		if err != nil {
			h.ValidationError(c, dto.ValidationDetail{Field: q.name, Message: "Must be true or false"})
			return
		}
		shipments = filter(shipments, func(s warehouse.Shipment) bool { return q.get(s) == want })
	}

	List(c, shipments)
}

// Create godoc
// @Summary      Book a shipment onto a trailer
// @Tags         shipments
// @Router       /shipments [post]
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if _, ok := h.store.GetTrailerByID(req.TrailerID); !ok {
		h.ValidationError(c, dto.ValidationDetail{Field: "trailerId", Message: "Unknown trailer"})
		return
	}

	shipment, err := h.store.AddShipment(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, shipment)
}

// Get godoc
// @Summary      Get a shipment by id
// @Tags         shipments
// @Router       /shipments/{id} [get]
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipment, ok := h.store.GetShipmentByID(c.Param("id"))
	if !ok {
		h.NotFound(c, "Shipment not found")
		return
	}
	h.Success(c, shipment)
}

// Lookup godoc
// @Summary      Find a shipment by a scanned code
// @Description  Matches the STS job number, customer job number, MRN or id
// @Tags         shipments
// @Param        code  query  string  true  "Scanned code"
// @Router       /shipments/lookup [get]
func (h *ShipmentHandler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		h.ValidationError(c, dto.ValidationDetail{Field: "code", Message: "This field is required"})
		return
	}
	shipment, ok := h.store.LookupShipmentByCode(code)
	if !ok {
		h.NotFound(c, "No shipment matches "+code)
		return
	}
	h.Success(c, shipment)
}

// Update godoc
// @Summary      Partially update a shipment
// @Tags         shipments
// @Router       /shipments/{id} [patch]
func (h *ShipmentHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.GetShipmentByID(id); !ok {
		h.NotFound(c, "Shipment not found")
		return
	}

	var req UpdateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, details := req.toPatch()
	if details != nil {
		h.ValidationError(c, details...)
		return
	}

	updated, ok := h.store.UpdateShipment(c.Request.Context(), id, patch)
	if !ok {
		h.NotFound(c, "Shipment not found")
		return
	}
	h.Success(c, updated)
}

// Print godoc
// @Summary      Mark a shipment's release note as printed
// @Description  Only released and cleared shipments can be printed. The first
// @Description  print stamps releasedAt; later prints keep it
// @Tags         shipments
// @Router       /shipments/{id}/print [post]
func (h *ShipmentHandler) Print(c *gin.Context) {
	id := c.Param("id")
	current, ok := h.store.GetShipmentByID(id)
	if !ok {
		h.NotFound(c, "Shipment not found")
		return
	}
	if !current.Released || !current.Cleared {
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict,
			"Shipment must be released and cleared before printing")
		return
	}

	shipment, ok := h.store.MarkShipmentAsPrinted(c.Request.Context(), id)
	if !ok {
		h.NotFound(c, "Shipment not found")
		return
	}
	h.Success(c, shipment)
}

// Delete godoc
// @Summary      Delete a shipment
// @Tags         shipments
// @Router       /shipments/{id} [delete]
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if !h.store.DeleteShipment(c.Request.Context(), c.Param("id")) {
		h.NotFound(c, "Shipment not found")
		return
	}
	h.NoContent(c)
}

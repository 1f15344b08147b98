package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
)

// TrailerHandler handles trailer-related API endpoints
type TrailerHandler struct {
	BaseHandler
	store *appwarehouse.Store
}

// NewTrailerHandler creates a new TrailerHandler
func NewTrailerHandler(store *appwarehouse.Store) *TrailerHandler {
	return &TrailerHandler{store: store}
}

// List godoc
// @Summary      List trailers in insertion order
// @Tags         trailers
// @Param        status   query  string  false  "Filter by status"
// @Param        company  query  string  false  "Filter by company (case-insensitive)"
// @Router       /trailers [get]
func (h *TrailerHandler) List(c *gin.Context) {
	trailers := h.store.Trailers()

	if raw := c.Query("status"); raw != "" {
		status, ok := warehouse.ParseTrailerStatus(raw)
		if !ok {
			h.ValidationError(c, dto.ValidationDetail{Field: "status", Message: "Unknown trailer status"})
			return
		}
		trailers = filter(trailers, func(t warehouse.Trailer) bool { return t.Status == status })
	}
	if company := strings.TrimSpace(c.Query("company")); company != "" {
		trailers = filter(trailers, func(t warehouse.Trailer) bool { return strings.EqualFold(t.Company, company) })
	}

	List(c, trailers)
}

// Create godoc
// @Summary      Register a trailer
// @Tags         trailers
// @Router       /trailers [post]
func (h *TrailerHandler) Create(c *gin.Context) {
	var req CreateTrailerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, details := req.toInput()
	details = append(details, checkStorageWindow(in.ArrivalDate, in.StorageExpiryDate)...)
	if len(details) > 0 {
		h.ValidationError(c, details...)
		return
	}
	if _, exists := h.store.GetTrailerByID(strings.TrimSpace(req.ID)); exists {
		h.Conflict(c, "Trailer "+req.ID+" already exists")
		return
	}

	trailer, err := h.store.AddTrailer(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, trailer)
}

// Get godoc
// @Summary      Get a trailer by id
// @Tags         trailers
// @Router       /trailers/{id} [get]
func (h *TrailerHandler) Get(c *gin.Context) {
	trailer, ok := h.store.GetTrailerByID(c.Param("id"))
	if !ok {
		h.NotFound(c, "Trailer not found")
		return
	}
	h.Success(c, trailer)
}

// Update godoc
// @Summary      Partially update a trailer
// @Tags         trailers
// @Router       /trailers/{id} [patch]
func (h *TrailerHandler) Update(c *gin.Context) {
	id := c.Param("id")
	current, ok := h.store.GetTrailerByID(id)
	if !ok {
		h.NotFound(c, "Trailer not found")
		return
	}

	var req UpdateTrailerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, details := req.toPatch()
	if details == nil {
		preview := current.Clone()
		patch.Apply(&preview)
		details = checkStorageWindow(preview.ArrivalDate, preview.StorageExpiryDate)
	}
	if details != nil {
		h.ValidationError(c, details...)
		return
	}

	updated, ok := h.store.UpdateTrailer(c.Request.Context(), id, patch)
	if !ok {
		h.NotFound(c, "Trailer not found")
		return
	}
	h.Success(c, updated)
}

// UpdateStatus godoc
// @Summary      Set a trailer status
// @Tags         trailers
// @Router       /trailers/{id}/status [put]
func (h *TrailerHandler) UpdateStatus(c *gin.Context) {
	var req UpdateTrailerStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	status, ok := warehouse.ParseTrailerStatus(req.Status)
	if !ok {
		h.ValidationError(c, dto.ValidationDetail{Field: "status", Message: "Unknown trailer status"})
		return
	}

	id := c.Param("id")
	if !h.store.UpdateTrailerStatus(c.Request.Context(), id, status) {
		h.NotFound(c, "Trailer not found")
		return
	}
	trailer, _ := h.store.GetTrailerByID(id)
	h.Success(c, trailer)
}

// Delete godoc
// @Summary      Delete a trailer and all of its shipments
// @Tags         trailers
// @Router       /trailers/{id} [delete]
func (h *TrailerHandler) Delete(c *gin.Context) {
	if !h.store.DeleteTrailer(c.Request.Context(), c.Param("id")) {
		h.NotFound(c, "Trailer not found")
		return
	}
	h.NoContent(c)
}

// ListShipments godoc
// @Summary      List the shipments of a trailer
// @Tags         trailers
// @Router       /trailers/{id}/shipments [get]
func (h *TrailerHandler) ListShipments(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.GetTrailerByID(id); !ok {
		h.NotFound(c, "Trailer not found")
		return
	}
	List(c, h.store.GetShipmentsByTrailerID(id))
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/service"
	"github.com/jengzang/dialysis-locator-go/pkg/response"
)

// CenterHandler handles HTTP requests for center details and search
type CenterHandler struct {
	service *service.AccessService
}

// NewCenterHandler creates a new center handler
func NewCenterHandler(service *service.AccessService) *CenterHandler {
	return &CenterHandler{service: service}
}

// GetCenter handles GET /api/v1/centers/:id
func (h *CenterHandler) GetCenter(c *gin.Context) {
	center, err := h.service.ViewCenter(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrCenterNotFound):
		response.NotFound(c, "Center not found")
	case errors.Is(err, service.ErrLimitReached):
		response.LimitReached(c, "Daily detail view limit reached")
	case err != nil:
		response.Error(c, http.StatusInternalServerError, "Failed to get center", err)
	default:
		response.Success(c, center)
	}
}

// Search handles GET /api/v1/search
func (h *CenterHandler) Search(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	centers, err := h.service.Search(c.Request.Context(), filter)
	if errors.Is(err, service.ErrLimitReached) {
		response.LimitReached(c, "Daily search limit reached")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Search failed", err)
		return
	}

	response.Success(c, gin.H{
		"data":  centers,
		"count": len(centers),
	})
}

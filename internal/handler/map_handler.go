package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dialysis-locator-go/internal/models"
	"github.com/jengzang/dialysis-locator-go/internal/service"
	"github.com/jengzang/dialysis-locator-go/pkg/response"
)

// MapHandler handles HTTP requests for the map view
type MapHandler struct {
	service *service.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(service *service.MapService) *MapHandler {
	return &MapHandler{service: service}
}

// GetView handles GET /api/v1/map/view
func (h *MapHandler) GetView(c *gin.Context) {
	var filter models.ViewportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	response.Success(c, h.service.View(filter))
}

// CameraStart handles POST /api/v1/map/camera/start
func (h *MapHandler) CameraStart(c *gin.Context) {
	response.Success(c, gin.H{"idle": h.service.MovementStart()})
}

// CameraEnd handles POST /api/v1/map/camera/end
func (h *MapHandler) CameraEnd(c *gin.Context) {
	response.Success(c, gin.H{"idle": h.service.MovementEnd()})
}

// GetLastViewport handles GET /api/v1/map/last-viewport
func (h *MapHandler) GetLastViewport(c *gin.Context) {
	snapshot, ok := h.service.LastViewport(c.Request.Context())
	if !ok {
		response.NotFound(c, "No saved viewport")
		return
	}
	response.Success(c, snapshot)
}

// GetIcon handles GET /api/v1/icons/:category
func (h *MapHandler) GetIcon(c *gin.Context) {
	asset := h.service.Icon(c.Param("category"))
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", asset.SVG)
}

// ClearIcons handles POST /api/v1/icons/clear
func (h *MapHandler) ClearIcons(c *gin.Context) {
	h.service.ClearIcons()
	response.Success(c, gin.H{"cleared": true})
}

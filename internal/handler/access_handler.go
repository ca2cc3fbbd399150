package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dialysis-locator-go/internal/entitlement"
	"github.com/jengzang/dialysis-locator-go/internal/service"
	"github.com/jengzang/dialysis-locator-go/pkg/response"
)

// AccessHandler handles session, entitlement and ad placement requests
type AccessHandler struct {
	service *service.AccessService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(service *service.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

type overrideRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type purchaseRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

// GetStatus handles GET /api/v1/access/status
func (h *AccessHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.service.Status(c.Request.Context()))
}

// GetEntitlement handles GET /api/v1/entitlement
func (h *AccessHandler) GetEntitlement(c *gin.Context) {
	st := h.service.Status(c.Request.Context())
	response.Success(c, gin.H{
		"premium":     st.Premium,
		"entitlement": st.Entitlement,
	})
}

// SetOverride handles POST /api/v1/entitlement/override
func (h *AccessHandler) SetOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	response.Success(c, gin.H{"premium": h.service.SetOverride(c.Request.Context(), *req.Enabled)})
}

// Purchase handles POST /api/v1/entitlement/purchase
func (h *AccessHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	premium, err := h.service.Purchase(c.Request.Context(), req.PackageID)
	if err != nil {
		ledgerError(c, "Purchase failed", err)
		return
	}
	response.Success(c, gin.H{"premium": premium})
}

// Restore handles POST /api/v1/entitlement/restore
func (h *AccessHandler) Restore(c *gin.Context) {
	premium, err := h.service.Restore(c.Request.Context())
	if err != nil {
		ledgerError(c, "Restore failed", err)
		return
	}
	response.Success(c, gin.H{"premium": premium})
}

// Login handles POST /api/v1/session/login
func (h *AccessHandler) Login(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		response.Unauthorized(c, "Missing bearer token")
		return
	}
	userID, premium, err := h.service.Login(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "Invalid session token", err)
		return
	}
	response.Success(c, gin.H{
		"user_id": userID,
		"premium": premium,
	})
}

// Logout handles POST /api/v1/session/logout
func (h *AccessHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context())
	response.Success(c, gin.H{"premium": h.service.IsPremium()})
}

// GetPlacement handles GET /api/v1/ads/placement
func (h *AccessHandler) GetPlacement(c *gin.Context) {
	response.Success(c, h.service.Placement())
}

// ShowInterstitial handles POST /api/v1/ads/interstitial
func (h *AccessHandler) ShowInterstitial(c *gin.Context) {
	response.Success(c, gin.H{"shown": h.service.Interstitial()})
}

func ledgerError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, entitlement.ErrNoUser):
		response.Error(c, http.StatusUnauthorized, message, err)
		return
	case errors.Is(err, entitlement.ErrNoLedger):
		response.Error(c, http.StatusServiceUnavailable, message, err)
		return
	}
	response.Error(c, http.StatusBadGateway, message, err)
}

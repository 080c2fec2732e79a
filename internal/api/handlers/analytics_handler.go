package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/stockpilot/internal/analytics"
	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/service"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build dashboard", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetProducts lists product groups; ?sort=sales|coupang|hq|name&order=asc|desc.
func (h *AnalyticsHandler) GetProducts(c *gin.Context) {
	sortKey := strings.ToLower(c.DefaultQuery("sort", analytics.SortBySales))
	desc := !strings.EqualFold(c.Query("order"), "asc")
	if sortKey == analytics.SortByName && c.Query("order") == "" {
		desc = false
	}

	groups, err := h.service.Groups(c.Request.Context(), sortKey, desc)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": groups, "total": len(groups)})
}

// GetRisks lists inventory risks, most urgent first; ?status= filters.
func (h *AnalyticsHandler) GetRisks(c *gin.Context) {
	risks, err := h.service.Risks(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to forecast risks", err)
		return
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filtered := make([]domain.InventoryRisk, 0, len(risks))
		for _, r := range risks {
			if strings.EqualFold(string(r.Status), status) {
				filtered = append(filtered, r)
			}
		}
		risks = filtered
	}
	c.JSON(http.StatusOK, gin.H{"items": risks, "total": len(risks)})
}

func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	trends, err := h.service.Trends(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to build trends", err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (h *AnalyticsHandler) GetRecords(c *gin.Context) {
	kind, err := domain.ParseDatasetKind(c.Param("kind"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid dataset kind", err)
		return
	}

	records, err := h.service.Records(c.Request.Context(), kind)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load records", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

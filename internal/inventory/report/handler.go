package report

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	e *Exporter
}

func NewReportHandler(e *Exporter) *ReportHandler {
	return &ReportHandler{e: e}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/reports/equipment", h.ExportEquipment)
}

func (h *ReportHandler) ExportEquipment(c *gin.Context) {
	written, err := h.e.Export(c.Request.Context(), c.DefaultQuery("range", DefaultRange))
	if errors.Is(err, ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Unable to export inventory report", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": written})
}

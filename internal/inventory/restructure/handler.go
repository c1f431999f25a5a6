package restructure

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type RestructureHandler struct {
	s *Service
}

func NewRestructureHandler(s *Service) *RestructureHandler {
	return &RestructureHandler{s: s}
}

func (h *RestructureHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/restructure", h.Migrate)
	router.POST("/restructure/rollback", h.Rollback)
	router.GET("/restructure/status", h.Status)
}

func (h *RestructureHandler) Migrate(c *gin.Context) {
	skipExisting, err := strconv.ParseBool(c.DefaultQuery("skipExisting", "false"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid skipExisting flag", "details": err.Error()})
		return
	}

	report, err := h.s.Migrate(c.Request.Context(), Options{SkipExisting: skipExisting})
	if errors.Is(err, ErrRunInProgress) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if report.Status == StatusFatalFailure {
		status = http.StatusInternalServerError
	}
	c.JSON(status, report)
}

func (h *RestructureHandler) Rollback(c *gin.Context) {
	report, err := h.s.Rollback(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrRunInProgress) {
			status = http.StatusConflict
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "Rollback failed", "details": err.Error(), "partial": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *RestructureHandler) Status(c *gin.Context) {
	status, err := h.s.CheckStatus(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to check restructure status", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

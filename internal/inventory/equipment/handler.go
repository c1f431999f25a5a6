package equipment

import (
	"net/http"
	"strconv"
	"strings"

	"equiphouse/pkg/auditlog"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	r        *Repository
	AuditLog *auditlog.Auditlog
}

func NewEquipmentHandler(r *Repository, a *auditlog.Auditlog) *EquipmentHandler {
	return &EquipmentHandler{
		r:        r,
		AuditLog: a,
	}
}

func (h *EquipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/equipment", h.GetEquipment)
	router.POST("/equipment/assets", h.CreateAsset)
	router.POST("/equipment/assets/stock", h.AddAssetStock)
	router.POST("/equipment/consumables", h.CreateConsumable)
	router.PATCH("/equipment/consumables/:id/stock", h.AdjustConsumableStock)
	router.PATCH("/equipment/items/:source/:id", h.UpdateMetadata)
	router.DELETE("/equipment/items/:source/:id", h.DeleteEquipment)
	router.GET("/equipment/items/:source/:id/log", h.GetItemLog)

	router.GET("/equipment/instances", h.GetAvailableInstances)
	router.GET("/equipment/instances/serial/:code", h.GetInstanceBySerialCode)
	router.POST("/equipment/instances/borrow", h.BorrowInstances)
	router.PATCH("/equipment/instances/:id/condition", h.UpdateInstanceCondition)
	router.PATCH("/equipment/instances/:id/serial", h.UpdateInstanceSerialCode)
	router.DELETE("/equipment/instances/:id", h.DeleteInstance)

	router.GET("/taxonomy", h.GetTaxonomy)
	router.POST("/taxonomy", h.SaveTaxonomyType)
}

// useCache reads the ?cache= flag; anything but an explicit false keeps the
// cache on.
func useCache(c *gin.Context) bool {
	value, err := strconv.ParseBool(c.DefaultQuery("cache", "true"))
	return err != nil || value
}

func retryable(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error":     message,
		"retryable": true,
	})
}

func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	c.JSON(http.StatusOK, h.r.LoadAll(c.Request.Context(), useCache(c)))
}

func (h *EquipmentHandler) CreateAsset(c *gin.Context) {
	var req NewAsset
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "name must not be blank"})
		return
	}

	codes, err := NormalizeSerialCodes(req.SerialCodes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid serial codes", "details": err.Error()})
		return
	}
	req.SerialCodes = codes

	id := h.r.AddAsset(c.Request.Context(), req)
	if id == "" {
		retryable(c, "Failed to create asset")
		return
	}

	go h.AuditLog.Log(
		"create",
		map[string]any{
			"name":         req.Name,
			"serial_codes": req.SerialCodes,
			"msg":          "Asset created successfully",
		},
		models.EquipmentDisplay{ID: id, Source: metadata.SourceEquipmentMaster},
	)

	c.JSON(http.StatusCreated, gin.H{"id": id, "sourceCollection": metadata.SourceEquipmentMaster})
}

func (h *EquipmentHandler) AddAssetStock(c *gin.Context) {
	var req AssetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.MasterID == "" && strings.TrimSpace(req.MasterName) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "masterId or masterName is required"})
		return
	}

	codes, err := NormalizeSerialCodes(req.SerialCodes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid serial codes", "details": err.Error()})
		return
	}

	masterID := req.MasterID
	if masterID != "" {
		if !h.r.AddAssetStockByID(c.Request.Context(), masterID, codes) {
			masterID = ""
		}
	} else {
		masterID = h.r.AddAssetStockByName(c.Request.Context(), strings.TrimSpace(req.MasterName), codes)
	}
	if masterID == "" {
		retryable(c, "Unable to add asset stock")
		return
	}

	go h.AuditLog.Log(
		"restock",
		map[string]any{
			"master_name":  req.MasterName,
			"serial_codes": codes,
			"msg":          "Asset stock added",
		},
		models.EquipmentDisplay{ID: masterID, Source: metadata.SourceEquipmentMaster},
	)

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) CreateConsumable(c *gin.Context) {
	var req NewConsumable
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "name must not be blank"})
		return
	}
	if req.Category != "" {
		category, err := metadata.NewCategory(req.Category)
		if err != nil || !category.IsQuantityTracked() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid category", "details": "category must be consumable or main"})
			return
		}
	}

	id := h.r.AddConsumable(c.Request.Context(), req)
	if id == "" {
		retryable(c, "Failed to create consumable")
		return
	}

	go h.AuditLog.Log(
		"create",
		map[string]any{
			"name":     req.Name,
			"quantity": req.Quantity,
			"msg":      "Consumable created successfully",
		},
		models.EquipmentDisplay{ID: id, Source: metadata.SourceEquipment},
	)

	c.JSON(http.StatusCreated, gin.H{"id": id, "sourceCollection": metadata.SourceEquipment})
}

func (h *EquipmentHandler) AdjustConsumableStock(c *gin.Context) {
	var req ConsumableStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	id := c.Param("id")
	if !h.r.AddConsumableStock(c.Request.Context(), id, req.Delta) {
		retryable(c, "Unable to adjust stock")
		return
	}

	go h.AuditLog.Log(
		"restock",
		map[string]any{"delta": req.Delta, "msg": "Consumable stock adjusted"},
		models.EquipmentDisplay{ID: id, Source: metadata.SourceEquipment},
	)

	c.Status(http.StatusNoContent)
}

// resolveItem maps the :source/:id path onto the current display item.
func (h *EquipmentHandler) resolveItem(c *gin.Context) (models.EquipmentDisplay, bool) {
	source, err := metadata.NewSourceCollection(c.Param("source"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid source collection", "details": err.Error()})
		return models.EquipmentDisplay{}, false
	}

	item, ok := h.r.FindItem(c.Request.Context(), source, c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Equipment not found"})
		return models.EquipmentDisplay{}, false
	}

	return item, true
}

func (h *EquipmentHandler) UpdateMetadata(c *gin.Context) {
	var req MetadataUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "name must not be blank"})
		return
	}

	item, ok := h.resolveItem(c)
	if !ok {
		return
	}
	if !h.r.UpdateMetadata(c.Request.Context(), item, req) {
		retryable(c, "Unable to update equipment")
		return
	}

	go h.AuditLog.Log("update", map[string]any{"msg": "Equipment metadata updated"}, item)

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) DeleteEquipment(c *gin.Context) {
	item, ok := h.resolveItem(c)
	if !ok {
		return
	}
	if !h.r.DeleteEquipment(c.Request.Context(), item) {
		retryable(c, "Unable to delete equipment")
		return
	}

	go h.AuditLog.Log(
		"delete",
		map[string]any{"name": item.Name, "quantity": item.Quantity, "msg": "Equipment deleted"},
		item,
	)

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) GetItemLog(c *gin.Context) {
	source, err := metadata.NewSourceCollection(c.Param("source"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid source collection", "details": err.Error()})
		return
	}
	if h.AuditLog == nil {
		c.JSON(http.StatusOK, []models.AuditLog{})
		return
	}

	entries, err := h.AuditLog.ResourceLog(c.Request.Context(), c.Param("id"), string(source))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch audit log", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *EquipmentHandler) GetAvailableInstances(c *gin.Context) {
	master := strings.TrimSpace(c.Query("master"))
	if master == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Query parameter master is required"})
		return
	}

	c.JSON(http.StatusOK, h.r.GetAvailableInstances(c.Request.Context(), master))
}

func (h *EquipmentHandler) GetInstanceBySerialCode(c *gin.Context) {
	instance := h.r.FindInstanceBySerialCode(c.Request.Context(), c.Param("code"))
	if instance == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unable to locate instance with given serial code"})
		return
	}

	c.JSON(http.StatusOK, instance)
}

func (h *EquipmentHandler) BorrowInstances(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	if !h.r.MarkInstancesBorrowed(c.Request.Context(), req.InstanceIDs) {
		retryable(c, "Unable to borrow instances")
		return
	}

	for _, id := range req.InstanceIDs {
		go h.AuditLog.Log("borrow", map[string]any{"msg": "Instance borrowed"}, models.AssetInstance{ID: id})
	}

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) UpdateInstanceCondition(c *gin.Context) {
	var req ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	condition, err := metadata.NewCondition(req.Condition)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid condition", "details": err.Error()})
		return
	}

	id := c.Param("id")
	if !h.r.UpdateInstanceCondition(c.Request.Context(), id, condition, *req.Available) {
		retryable(c, "Unable to update instance")
		return
	}

	go h.AuditLog.Log(
		"update",
		map[string]any{"condition": condition, "available": *req.Available, "msg": "Instance condition updated"},
		models.AssetInstance{ID: id},
	)

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) UpdateInstanceSerialCode(c *gin.Context) {
	var req SerialCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	code := strings.TrimSpace(req.SerialCode)
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid serial codes", "details": ErrBlankSerialCode.Error()})
		return
	}

	id := c.Param("id")
	if !h.r.UpdateInstanceSerialCode(c.Request.Context(), id, code) {
		retryable(c, "Unable to update serial code")
		return
	}

	go h.AuditLog.Log("update", map[string]any{"serial_code": code, "msg": "Instance serial code updated"}, models.AssetInstance{ID: id})

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) DeleteInstance(c *gin.Context) {
	id := c.Param("id")
	if !h.r.DeleteInstance(c.Request.Context(), id) {
		retryable(c, "Unable to delete instance")
		return
	}

	go h.AuditLog.Log("delete", map[string]any{"msg": "Instance deleted"}, models.AssetInstance{ID: id})

	c.Status(http.StatusNoContent)
}

func (h *EquipmentHandler) GetTaxonomy(c *gin.Context) {
	c.JSON(http.StatusOK, h.r.LoadTaxonomy(c.Request.Context(), useCache(c)))
}

func (h *EquipmentHandler) SaveTaxonomyType(c *gin.Context) {
	var req models.Taxonomy
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "name must not be blank"})
		return
	}

	id := h.r.SaveTaxonomyType(c.Request.Context(), req)
	if id == "" {
		retryable(c, "Unable to save equipment type")
		return
	}
	req.ID = id

	go h.AuditLog.Log("save", map[string]any{"name": req.Name, "msg": "Equipment type saved"}, req)

	c.JSON(http.StatusOK, req)
}

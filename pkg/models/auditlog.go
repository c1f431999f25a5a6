package models

import "time"

type AuditLog struct {
	ID           string         `json:"id"`
	ResourceID   string         `json:"resourceId"`
	ResourceType string         `json:"resourceType"`
	Action       string         `json:"action"` // Captures what happened (e.g., create, restock, update, delete, borrow).
	Data         map[string]any `json:"data"`
	CreatedAt    time.Time      `json:"createdAt"`
}

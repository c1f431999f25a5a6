package models

const (
	CollectionEquipment       = "equipment"
	CollectionEquipmentMaster = "equipmentMaster"
	CollectionAssetInstances  = "assetInstances"
	CollectionEquipmentTypes  = "equipmentTypes"
	CollectionAuditLog        = "auditLog"
	CollectionMigrationRuns   = "migrationRuns"
)

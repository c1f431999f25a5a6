package restructure

import (
	"errors"
	"time"
)

type Status string

const (
	StatusNotStarted          Status = "NOT_STARTED"
	StatusRunning             Status = "RUNNING"
	StatusCompleted           Status = "COMPLETED"
	StatusCompletedWithErrors Status = "COMPLETED_WITH_ERRORS"
	StatusFatalFailure        Status = "FATAL_FAILURE"
)

var ErrRunInProgress = errors.New("a restructure run is already in progress")

type Options struct {
	// SkipExisting skips a name group when a migrated master with that name
	// already exists, making reruns safe.
	SkipExisting bool
	// BatchSize caps the writes per commit; 0 or anything above the store
	// limit means the store limit.
	BatchSize int
}

// GroupError records one name group that could not be migrated. The run
// carries on with the remaining groups.
type GroupError struct {
	Group     string   `json:"group"`
	LegacyIDs []string `json:"legacyIds"`
	Error     string   `json:"error"`
}

type Report struct {
	RunID              string       `json:"id"`
	Status             Status       `json:"status"`
	SkipExisting       bool         `json:"skipExisting"`
	SkippedConsumables int          `json:"skippedConsumables"`
	SkippedExisting    int          `json:"skippedExisting"`
	MigratedAssets     int          `json:"migratedAssets"`
	NewInstanceRecords int          `json:"newInstanceRecords"`
	LastGroup          string       `json:"lastGroup,omitempty"`
	Errors             []GroupError `json:"errors"`
	Fatal              string       `json:"fatal,omitempty"`
	StartedAt          time.Time    `json:"startedAt"`
	FinishedAt         *time.Time   `json:"finishedAt,omitempty"`
}

type RollbackReport struct {
	DeletedMasters   int `json:"deletedMasters"`
	DeletedInstances int `json:"deletedInstances"`
}

type StatusReport struct {
	State             Status  `json:"state"`
	LegacyAssets      int     `json:"legacyAssets"`
	MigratedMasters   int     `json:"migratedMasters"`
	MigratedInstances int     `json:"migratedInstances"`
	Pending           int     `json:"pending"`
	NeedsMigration    bool    `json:"needsMigration"`
	LastRun           *Report `json:"lastRun,omitempty"`
}

package interfaces

import (
	"time"

	"github.com/ternarybob/probo/internal/models"
)

// SuiteStatus represents the current status of a scheduled suite
type SuiteStatus struct {
	Name      string
	Schedule  string
	Disabled  bool
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based suite scheduling
type SchedulerService interface {
	// RegisterSuite registers a suite with the scheduler. Suites without a
	// schedule are rejected; disabled suites are registered but not run.
	RegisterSuite(suite *models.Suite, handler func() error) error

	// Start begins executing registered suites on their schedules
	Start() error

	// Stop halts the scheduler, waiting for in-flight runs to finish
	Stop() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// GetSuiteStatus returns the status of a specific suite
	GetSuiteStatus(name string) (*SuiteStatus, error)

	// GetAllSuiteStatuses returns all suite statuses
	GetAllSuiteStatuses() map[string]*SuiteStatus
}

// Package scheduler runs test suites on cron schedules.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// suiteEntry represents a registered suite with run state
type suiteEntry struct {
	name      string
	schedule  string
	disabled  bool
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService interface
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	suites  map[string]*suiteEntry
	running bool
}

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		suites: make(map[string]*suiteEntry),
	}
}

// RegisterSuite registers a suite for scheduled execution. Disabled suites
// are tracked but never added to cron.
func (s *Service) RegisterSuite(suite *models.Suite, handler func() error) error {
	if suite == nil {
		return fmt.Errorf("suite is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if suite.Schedule == "" {
		return fmt.Errorf("suite %s has no schedule", suite.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suites[suite.Name]; exists {
		return fmt.Errorf("suite %s already registered", suite.Name)
	}

	entry := &suiteEntry{
		name:     suite.Name,
		schedule: suite.Schedule,
		disabled: suite.Disabled,
		handler:  handler,
	}

	if !suite.Disabled {
		name := suite.Name
		cronID, err := s.cron.AddFunc(suite.Schedule, func() {
			s.executeSuite(name)
		})
		if err != nil {
			return fmt.Errorf("failed to add suite to cron: %w", err)
		}
		entry.cronID = cronID
	}

	s.suites[suite.Name] = entry

	s.logger.Info().
		Str("suite", suite.Name).
		Str("schedule", suite.Schedule).
		Bool("disabled", suite.Disabled).
		Msg("Suite registered with scheduler")

	return nil
}

// Start begins executing registered suites on their schedules
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("suites", len(s.suites)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for in-flight suite runs to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	// cron.Stop's context completes when running jobs have finished
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetSuiteStatus returns the status of a specific suite
func (s *Service) GetSuiteStatus(name string) (*interfaces.SuiteStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.suites[name]
	if !exists {
		return nil, fmt.Errorf("suite %s not found", name)
	}

	var nextRun *time.Time
	if !entry.disabled {
		for _, cronEntry := range s.cron.Entries() {
			if cronEntry.ID == entry.cronID && !cronEntry.Next.IsZero() {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}
	}

	return &interfaces.SuiteStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		Disabled:  entry.disabled,
		LastRun:   entry.lastRun,
		NextRun:   nextRun,
		IsRunning: entry.isRunning,
		LastError: entry.lastError,
	}, nil
}

// GetAllSuiteStatuses returns all suite statuses
func (s *Service) GetAllSuiteStatuses() map[string]*interfaces.SuiteStatus {
	s.mu.Lock()
	names := make([]string, 0, len(s.suites))
	for name := range s.suites {
		names = append(names, name)
	}
	s.mu.Unlock()

	statuses := make(map[string]*interfaces.SuiteStatus)
	for _, name := range names {
		if status, err := s.GetSuiteStatus(name); err == nil {
			statuses[name] = status
		}
	}
	return statuses
}

// executeSuite wraps a suite run with overlap suppression, panic recovery,
// and status tracking.
func (s *Service) executeSuite(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("suite", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in scheduled suite run")

			s.mu.Lock()
			if entry, exists := s.suites[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	entry, exists := s.suites[name]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("suite", name).Msg("Scheduled suite not found")
		return
	}
	if entry.isRunning {
		s.mu.Unlock()
		s.logger.Debug().Str("suite", name).Msg("Previous run still in progress, skipping this trigger")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.mu.Unlock()

	started := time.Now()
	s.logger.Info().Str("suite", name).Msg("Scheduled suite run started")

	err := handler()

	completed := time.Now()
	s.mu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("suite", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Scheduled suite run failed")
	} else {
		s.logger.Info().
			Str("suite", name).
			Dur("duration", time.Since(started)).
			Msg("Scheduled suite run completed")
	}
}

// Ensure Service implements SchedulerService interface
var _ interfaces.SchedulerService = (*Service)(nil)

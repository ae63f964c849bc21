package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orhnk/Mahfouz/internal/koreader"
	"github.com/orhnk/Mahfouz/internal/services"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

// AnkiSyncScheduler periodically exports a watched sidecar directory to Anki.
type AnkiSyncScheduler struct {
	settingsStore *settingsstore.SettingsStore
	exportService *services.ExportService

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewAnkiSyncScheduler creates a new scheduler instance
func NewAnkiSyncScheduler(settingsStore *settingsstore.SettingsStore, exportService *services.ExportService) *AnkiSyncScheduler {
	return &AnkiSyncScheduler{
		settingsStore: settingsStore,
		exportService: exportService,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if scheduled export is enabled
func (s *AnkiSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settingsStore.GetAnkiSyncConfig()

	if !config.Enabled {
		log.Printf("Anki sync scheduler: disabled")
		return nil
	}

	if config.SidecarDir == "" {
		log.Printf("Anki sync scheduler: sidecar directory not configured, skipping")
		return nil
	}

	// Validate schedule
	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	// Add the export job
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}
	s.entryID = entryID

	// Create cancellable context
	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	// Start cron scheduler
	s.cron.Start()
	s.isRunning = true

	// Calculate next run
	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("Anki sync scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *AnkiSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Anki sync scheduler: stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *AnkiSyncScheduler) Reschedule() error {
	s.mu.Lock()
	wasRunning := s.isRunning
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	// Restart with new settings
	return s.Start(context.Background())
}

// RunNow triggers an immediate export
func (s *AnkiSyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *AnkiSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether an export is currently in progress
func (s *AnkiSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next export will occur
func (s *AnkiSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	for _, entry := range entries {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs the actual export run
func (s *AnkiSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Anki sync: skipped (already running)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	config := s.settingsStore.GetAnkiSyncConfig()

	if !config.Enabled {
		log.Printf("Anki sync: skipped (disabled)")
		return
	}

	if config.SidecarDir == "" {
		log.Printf("Anki sync: skipped (sidecar directory not configured)")
		_ = s.settingsStore.SetAnkiSyncStatus("failed", "Sidecar directory not configured")
		return
	}

	log.Printf("Anki sync: scanning %s", config.SidecarDir)
	startTime := time.Now()

	books, err := koreader.ScanDir(config.SidecarDir)
	if err != nil {
		errMsg := fmt.Sprintf("Failed to scan sidecar directory: %v", err)
		log.Printf("Anki sync: %s", errMsg)
		_ = s.settingsStore.SetAnkiSyncStatus("failed", errMsg)
		return
	}

	if len(books) == 0 {
		log.Printf("Anki sync: no sidecar files found")
		_ = s.settingsStore.SetAnkiSyncStatus("success", "No sidecar files found")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.exportService.ExportBooks(ctx, books, nil)
	if err != nil {
		errMsg := fmt.Sprintf("Export failed: %v", err)
		log.Printf("Anki sync: %s", errMsg)
		_ = s.settingsStore.SetAnkiSyncStatus("failed", errMsg)
		return
	}

	duration := time.Since(startTime)
	successMsg := fmt.Sprintf("%s in %v", result.Summary(), duration.Round(time.Millisecond))
	log.Printf("Anki sync: %s", successMsg)
	_ = s.settingsStore.SetAnkiSyncStatus("success", successMsg)
}

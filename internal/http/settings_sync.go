package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orhnk/Mahfouz/internal/settingsstore"
)

// SyncScheduler controls the background sync loop.
type SyncScheduler interface {
	Reschedule() error
	RunNow() error
	IsRunning() bool
	IsSyncing() bool
	GetNextRunTime() *time.Time
}

// SyncSettingsController handles scheduled sync settings and manual runs.
type SyncSettingsController struct {
	settingsStore *settingsstore.SettingsStore
	scheduler     SyncScheduler
}

func NewSyncSettingsController(store *settingsstore.SettingsStore, sched SyncScheduler) *SyncSettingsController {
	return &SyncSettingsController{
		settingsStore: store,
		scheduler:     sched,
	}
}

// SyncSettingsResponse is the response for GET /api/settings/sync.
type SyncSettingsResponse struct {
	Config      settingsstore.AnkiSyncConfig `json:"config"`
	Status      settingsstore.AnkiSyncStatus `json:"status"`
	Description string                       `json:"schedule_description"`
	NextRun     *time.Time                   `json:"next_run,omitempty"`
	IsRunning   bool                         `json:"is_running"`
	IsSyncing   bool                         `json:"is_syncing"`
}

// GetSettings handles GET /api/settings/sync.
func (sc *SyncSettingsController) GetSettings(c *gin.Context) {
	config := sc.settingsStore.GetAnkiSyncConfig()

	response := SyncSettingsResponse{
		Config:      config,
		Status:      sc.settingsStore.GetAnkiSyncStatus(),
		Description: settingsstore.GetCronDescription(config.Schedule),
	}
	if sc.scheduler != nil {
		response.NextRun = sc.scheduler.GetNextRunTime()
		response.IsRunning = sc.scheduler.IsRunning()
		response.IsSyncing = sc.scheduler.IsSyncing()
	}

	c.JSON(http.StatusOK, response)
}

// UpdateSyncSettingsRequest is the request body for PUT /api/settings/sync.
type UpdateSyncSettingsRequest struct {
	Enabled    *bool  `json:"enabled"`
	Schedule   string `json:"schedule"`
	SidecarDir string `json:"sidecar_dir"`
}

// UpdateSettings handles PUT /api/settings/sync. The scheduler is
// rescheduled after a successful save so changes take effect immediately.
func (sc *SyncSettingsController) UpdateSettings(c *gin.Context) {
	var req UpdateSyncSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			respondBadRequest(c, "invalid cron schedule: "+err.Error())
			return
		}
	}
	if req.SidecarDir != "" {
		info, err := os.Stat(req.SidecarDir)
		if err != nil {
			respondBadRequest(c, "sidecar directory is not accessible: "+err.Error())
			return
		}
		if !info.IsDir() {
			respondBadRequest(c, "sidecar path is not a directory")
			return
		}
	}

	if req.Schedule != "" {
		if err := sc.settingsStore.SetAnkiSyncSchedule(req.Schedule); err != nil {
			respondInternalError(c, err, "save sync schedule")
			return
		}
	}
	if req.SidecarDir != "" {
		if err := sc.settingsStore.SetAnkiSyncSidecarDir(req.SidecarDir); err != nil {
			respondInternalError(c, err, "save sync sidecar directory")
			return
		}
	}
	if req.Enabled != nil {
		if err := sc.settingsStore.SetAnkiSyncEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "save sync enabled flag")
			return
		}
	}

	if sc.scheduler != nil {
		if err := sc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule sync")
			return
		}
	}

	sc.GetSettings(c)
}

// RunNow handles POST /api/sync/run. The sync happens in the background;
// progress is visible through the sync status endpoint.
func (sc *SyncSettingsController) RunNow(c *gin.Context) {
	if sc.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "sync scheduler is not available"})
		return
	}
	if sc.scheduler.IsSyncing() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "a sync is already in progress"})
		return
	}

	if err := sc.scheduler.RunNow(); err != nil {
		respondInternalError(c, err, "start manual sync")
		return
	}

	respondAccepted(c, "sync started", nil)
}

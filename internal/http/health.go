package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orhnk/Mahfouz/internal/database"
)

// ConnectionProber reports whether the AnkiConnect endpoint is reachable.
type ConnectionProber interface {
	TestConnection(ctx context.Context) (bool, string)
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	anki    ConnectionProber
	version string
}

func NewHealthController(db *database.Database, anki ConnectionProber, version string) *HealthController {
	return &HealthController{
		db:      db,
		anki:    anki,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// Anki being offline is normal (desktop app may be closed), so it
	// never marks the service unhealthy.
	if h.anki != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if ok, msg := h.anki.TestConnection(ctx); ok {
			checks["anki_connect"] = "ok"
		} else {
			checks["anki_connect"] = "unreachable: " + msg
		}
	} else {
		checks["anki_connect"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/orhnk/Mahfouz/internal/database/sessions"
	"github.com/orhnk/Mahfouz/internal/entities"
	"github.com/orhnk/Mahfouz/internal/export"
	"github.com/orhnk/Mahfouz/internal/koreader"
	"github.com/orhnk/Mahfouz/internal/services"
	"github.com/orhnk/Mahfouz/internal/tasks"
)

// ExportRunner runs a full export of normalized books into Anki.
type ExportRunner interface {
	ExportBooks(ctx context.Context, books []koreader.Book, progress export.ProgressFunc) (services.Result, error)
}

// TaskEnqueuer submits background tasks to the queue.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// SessionStore reads export session history.
type SessionStore interface {
	Recent(limit int) ([]entities.ExportSession, error)
	GetByID(id uint) (*entities.ExportSession, error)
}

// ExportController handles export trigger and session history endpoints.
type ExportController struct {
	runner   ExportRunner
	enqueuer TaskEnqueuer
	sessions SessionStore
}

// NewExportController creates an ExportController. The enqueuer may be nil,
// in which case exports run synchronously inside the request.
func NewExportController(runner ExportRunner, enqueuer TaskEnqueuer, store SessionStore) *ExportController {
	return &ExportController{
		runner:   runner,
		enqueuer: enqueuer,
		sessions: store,
	}
}

// ExportRequest is the request body for POST /api/export.
type ExportRequest struct {
	SidecarDir   string   `json:"sidecar_dir"`
	SidecarPaths []string `json:"sidecar_paths"`
}

// RunExport handles POST /api/export.
// With a task queue available the export is enqueued and a task ID returned;
// otherwise it runs synchronously and the full result is returned.
func (ec *ExportController) RunExport(c *gin.Context) {
	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	if req.SidecarDir == "" && len(req.SidecarPaths) == 0 {
		respondBadRequest(c, "either sidecar_dir or sidecar_paths is required")
		return
	}

	if ec.enqueuer != nil {
		task := tasks.ExportBooksTask{
			SidecarDir:   req.SidecarDir,
			SidecarPaths: req.SidecarPaths,
		}
		ids, err := ec.enqueuer.Add(task).Save()
		if err != nil {
			respondInternalError(c, err, "enqueue export task")
			return
		}
		respondAccepted(c, "export enqueued", gin.H{"task_id": ids[0]})
		return
	}

	books, err := ec.loadBooks(req)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := ec.runner.ExportBooks(c.Request.Context(), books, nil)
	if err != nil {
		respondInternalError(c, err, "run export")
		return
	}

	diagnostics, more := capDiagnostics(result.Outcome.Diagnostics)
	c.JSON(http.StatusOK, gin.H{
		"session_id":       result.SessionID,
		"books_processed":  result.BooksProcessed,
		"succeeded":        result.Outcome.Succeeded,
		"failed":           result.Outcome.Failed,
		"skipped_empty":    result.Outcome.SkippedEmpty,
		"summary":          result.Summary(),
		"diagnostics":      diagnostics,
		"diagnostics_more": more,
	})
}

func (ec *ExportController) loadBooks(req ExportRequest) ([]koreader.Book, error) {
	if req.SidecarDir != "" {
		return koreader.ScanDir(req.SidecarDir)
	}
	books := make([]koreader.Book, 0, len(req.SidecarPaths))
	for _, path := range req.SidecarPaths {
		book, err := koreader.LoadSidecar(path)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// SessionResponse is an export session with its diagnostics decoded and
// capped for display.
type SessionResponse struct {
	entities.ExportSession
	Diagnostics     []string `json:"diagnostics,omitempty"`
	DiagnosticsMore int      `json:"diagnostics_more,omitempty"`
}

func newSessionResponse(session *entities.ExportSession) SessionResponse {
	diagnostics, more := capDiagnostics(sessions.Diagnostics(session))
	resp := SessionResponse{
		ExportSession:   *session,
		Diagnostics:     diagnostics,
		DiagnosticsMore: more,
	}
	resp.ExportSession.Diagnostics = ""
	return resp
}

// GetStatus handles GET /api/export/status. It reports the most recent
// export session, or an idle marker when nothing has run yet.
func (ec *ExportController) GetStatus(c *gin.Context) {
	recent, err := ec.sessions.Recent(1)
	if err != nil {
		respondInternalError(c, err, "fetch export status")
		return
	}
	if len(recent) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "idle"})
		return
	}

	session := newSessionResponse(&recent[0])
	c.JSON(http.StatusOK, gin.H{
		"status":  session.Status,
		"session": session,
	})
}

// ListSessions handles GET /api/export/sessions.
func (ec *ExportController) ListSessions(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondBadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	recent, err := ec.sessions.Recent(limit)
	if err != nil {
		respondInternalError(c, err, "list export sessions")
		return
	}

	responses := make([]SessionResponse, 0, len(recent))
	for i := range recent {
		responses = append(responses, newSessionResponse(&recent[i]))
	}

	c.JSON(http.StatusOK, gin.H{"sessions": responses})
}

// GetSession handles GET /api/export/sessions/:id.
func (ec *ExportController) GetSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := ec.sessions.GetByID(id)
	if err != nil {
		respondNotFound(c, "export session")
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}

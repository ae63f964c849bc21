package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orhnk/Mahfouz/internal/anki"
	"github.com/orhnk/Mahfouz/internal/config"
	"github.com/orhnk/Mahfouz/internal/database"
	"github.com/orhnk/Mahfouz/internal/database/sessions"
	"github.com/orhnk/Mahfouz/internal/database/settings"
	http_controllers "github.com/orhnk/Mahfouz/internal/http"
	"github.com/orhnk/Mahfouz/internal/scheduler"
	"github.com/orhnk/Mahfouz/internal/services"
	"github.com/orhnk/Mahfouz/internal/settingsstore"
	"github.com/orhnk/Mahfouz/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue and scheduler)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Mahfouz v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	settingsStore := settingsstore.New(settings.NewRepository(db.DB))
	sessionRepo := sessions.NewRepository(db.DB)

	// AnkiConnect client. Anki being offline at startup is fine; exports
	// just fail until the desktop app is running.
	ankiClient := anki.NewClient(settingsStore.GetAnkiURL())
	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if ok, msg := ankiClient.TestConnection(ctx); ok {
			log.Printf("AnkiConnect reachable at %s", ankiClient.URL())
		} else {
			log.Printf("WARNING: AnkiConnect not reachable at %s: %s", ankiClient.URL(), msg)
		}
		cancel()
	}

	exportService := services.NewExportService(ankiClient, settingsStore, sessionRepo)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewExportBooksQueue(exportService),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Start the scheduled sync loop. A disabled schedule is not an error;
	// the scheduler stays idle until settings enable it.
	syncScheduler := scheduler.NewAnkiSyncScheduler(settingsStore, exportService)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: Scheduled sync not started: %v", err)
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		SettingsStore: settingsStore,
		AnkiClient:    ankiClient,
		AnkiProber:    ankiClient,
		ExportService: exportService,
		SessionStore:  sessionRepo,
		SyncScheduler: syncScheduler,
		TaskClient:    taskClient,
		Version:       version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

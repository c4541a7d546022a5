package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/abiru/kikaku-os-sub000/appctx"
	"github.com/abiru/kikaku-os-sub000/config"
	"github.com/abiru/kikaku-os-sub000/models"
	"github.com/abiru/kikaku-os-sub000/reports"
	"github.com/abiru/kikaku-os-sub000/utils"
	"github.com/abiru/kikaku-os-sub000/workflow"
)

const defaultPort = "8080"

var tracer = otel.Tracer("daily-close")

// closeApp is assigned once the database is connected; until then the
// readiness gate keeps app endpoints returning 503.
var closeApp *application

type application struct {
	workflow *workflow.DailyCloseWorkflow
	stores   *workflow.GormStores
}

func buildApplication(logger *logrus.Logger) *application {
	db := config.GetDB()
	stores := workflow.NewGormStores(db)
	sink := workflow.NewAlertSinkFromEnv(logger)
	enqueuer := workflow.NewAnomalyEnqueuer(stores, sink, logger)

	var blobs workflow.BlobStore
	if os.Getenv("GCS_BUCKET") != "" {
		gcs, err := utils.NewGCSBlobStore()
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "storage"}).Panic(err.Error())
		}
		blobs = gcs
	} else {
		logger.WithFields(logrus.Fields{"field": "storage"}).
			Warn("GCS_BUCKET not set; writing artifacts to local disk")
		blobs = utils.NewLocalBlobStore()
	}

	return &application{
		workflow: &workflow.DailyCloseWorkflow{
			Logger:    logger,
			Tracker:   workflow.NewRunTracker(stores),
			Journal:   workflow.NewLedgerJournal(stores, logger),
			Anomalies: enqueuer,
			Rules:     workflow.NewRuleEngine(reports.NewGormMetricSource(db), enqueuer, logger),
			Reports:   reports.NewAggregator(db),
			Evidence:  reports.NewCollector(db),
			Renderer:  reports.NewRenderer(),
			Blobs:     blobs,
			Documents: stores,
		},
		stores: stores,
	}
}

// internalOpsAuth guards the mutating endpoints. The token is a shared secret
// for ops tooling, not a user auth scheme.
func internalOpsAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(os.Getenv("INTERNAL_OPS_TOKEN"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "internal ops endpoints are disabled"})
			return
		}
		if c.GetHeader("x-internal-ops-token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid ops token"})
			return
		}
		c.Next()
	}
}

func requireApp(c *gin.Context) *application {
	if closeApp == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return nil
	}
	return closeApp
}

func runDailyCloseHandler() gin.HandlerFunc {
	type request struct {
		Date  string `json:"date" binding:"required"`
		Force bool   `json:"force"`
	}
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		if err := utils.ValidateBusinessDate(req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := appctx.Set(c.Request.Context(), appctx.ContextKeyTriggeredBy, "http")
		ctx, span := tracer.Start(ctx, "dailyClose.Run")
		span.SetAttributes(attribute.String("close.date", req.Date), attribute.Bool("close.force", req.Force))
		res, err := app.workflow.Run(ctx, req.Date, req.Force)
		span.End()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func backfillHandler() gin.HandlerFunc {
	type request struct {
		From         string `json:"from" binding:"required"`
		To           string `json:"to" binding:"required"`
		Force        bool   `json:"force"`
		SkipExisting bool   `json:"skip_existing"`
	}
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}

		ctx := appctx.Set(c.Request.Context(), appctx.ContextKeyTriggeredBy, "backfill")
		summary, err := app.workflow.Backfill(ctx, req.From, req.To, workflow.BackfillOptions{
			Force:        req.Force,
			SkipExisting: req.SkipExisting,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func listRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		runs, err := app.workflow.Tracker.List(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func latestRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		date := c.Query("date")
		if err := utils.ValidateBusinessDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		run, err := app.workflow.Tracker.Latest(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if run == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no close run for %s", date)})
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func listLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		date := c.Query("date")
		if err := utils.ValidateBusinessDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		legs, err := app.workflow.Journal.ListEntries(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": legs})
	}
}

func exportLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		date := c.Query("date")
		if err := utils.ValidateBusinessDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		legs, err := app.workflow.Journal.ListEntries(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.xlsx", date))
		if err := reports.WriteLedgerWorkbook(c.Writer, date, legs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func listAlertsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		date := c.Query("date")
		if err := utils.ValidateBusinessDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		alerts, err := app.workflow.Anomalies.ListAlerts(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}

func listDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := requireApp(c)
		if app == nil {
			return
		}
		date := c.Query("date")
		if err := utils.ValidateBusinessDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		docs, err := app.stores.ListDocuments(c.Request.Context(), models.LedgerRefTypeDailyClose, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs})
	}
}

// customErrorLogger logs only requests that attached errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until the DB is ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(appctx.Set(c.Request.Context(), appctx.ContextKeyCorrelationId, cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; in development allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "x-internal-ops-token", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	internal := r.Group("/internal", internalOpsAuth())
	internal.POST("/daily-close/run", runDailyCloseHandler())
	internal.POST("/daily-close/backfill", backfillHandler())

	r.GET("/daily-close/runs", listRunsHandler())
	r.GET("/daily-close/runs/latest", latestRunHandler())
	r.GET("/daily-close/ledger", listLedgerHandler())
	r.GET("/daily-close/ledger/export", exportLedgerHandler())
	r.GET("/daily-close/alerts", listAlertsHandler())
	r.GET("/daily-close/documents", listDocumentsHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	closeApp = buildApplication(logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.DailyCloseSchedulerEnabled() {
		sched := workflow.NewSchedulerFromEnv(closeApp.workflow, workflow.NewAlertSinkFromEnv(logger), logger)
		go sched.Run(appctx.Set(workerCtx, appctx.ContextKeyTriggeredBy, "scheduler"))
	}
	if config.CleanupWorkersEnabled() {
		go workflow.NewCleanupWorkerFromEnv(db, logger).Run(workerCtx)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("daily-close service listening on port ", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work mid-drain.
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

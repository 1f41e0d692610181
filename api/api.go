package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sorenmh/appsmith/config"
	"github.com/sorenmh/appsmith/db"
	"github.com/sorenmh/appsmith/git"
	"github.com/sorenmh/appsmith/models"
)

type Server struct {
	config  *config.Config
	db      *db.Database
	history git.HistoryRecorder
	router  *gin.Engine
}

const Version = "1.0.0"

// MsgQuotaExceeded is reported when the plan's application limit is reached
const MsgQuotaExceeded = "application quota exceeded"

const (
	defaultListLimit = 20
	maxListLimit     = 100
	defaultLanguage  = "en-US"
)

func NewServer(cfg *config.Config, database *db.Database, history git.HistoryRecorder) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if history == nil {
		history = git.NopRecorder{}
	}

	s := &Server{
		config:  cfg,
		db:      database,
		history: history,
		router:  gin.Default(),
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// Health check (no auth)
	s.router.GET("/health", s.handleHealth)

	// API routes (with auth)
	api := s.router.Group("/api/v1")
	api.Use(s.authMiddleware())
	{
		api.GET("/apps", s.handleListApps)
		api.POST("/apps", s.handleCreateApp)
		api.GET("/apps/:id", s.handleGetApp)
		api.PUT("/apps/:id", s.handleUpdateApp)
		api.DELETE("/apps/:id", s.handleDeleteApp)
		api.POST("/apps/:id/site", s.handleUpdateSite)
		api.POST("/apps/:id/copy", s.handleCopyApp)
		api.GET("/apps/:id/export", s.handleExportApp)

		api.GET("/usage", s.handleUsage)
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(auth, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		token := parts[1]
		if !s.config.ValidateAPIKey(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func respondError(c *gin.Context, status int, msg, details string) {
	c.JSON(status, models.ErrorResponse{
		Error:   msg,
		Details: details,
		Time:    time.Now(),
	})
}

// bindAndValidate decodes the JSON body into req and runs field validation.
// It writes the 400 response itself and reports false on failure.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if err := models.Validate(req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), "")
		return false
	}
	return true
}

// loadApp fetches the :id application, writing a 404 or 500 when it can't
func (s *Server) loadApp(c *gin.Context) (*models.Application, bool) {
	app, err := s.db.GetApplication(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "application not found", "")
		return nil, false
	}
	if err != nil {
		log.Printf("Error getting application %s: %v", c.Param("id"), err)
		respondError(c, http.StatusInternalServerError, "failed to get application", "")
		return nil, false
	}
	return app, true
}

// checkQuota reports false, after writing a 400, when the plan is full
func (s *Server) checkQuota(c *gin.Context) bool {
	if s.config.Plan.AppLimit == 0 {
		return true
	}

	count, err := s.db.CountApplications()
	if err != nil {
		log.Printf("Error counting applications: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to check quota", "")
		return false
	}
	if count >= s.config.Plan.AppLimit {
		respondError(c, http.StatusBadRequest, MsgQuotaExceeded,
			fmt.Sprintf("plan allows %d applications", s.config.Plan.AppLimit))
		return false
	}
	return true
}

// recordHistory commits the app's snapshot. History is best effort: a
// failure is logged and never fails the request.
func (s *Server) recordHistory(app *models.Application) {
	snapshot, err := yaml.Marshal(models.NewSnapshot(app))
	if err != nil {
		log.Printf("Error encoding snapshot of %s: %v", app.ID, err)
		return
	}

	commit, err := s.history.RecordApplication(app.ID, app.Name, snapshot)
	if err != nil {
		log.Printf("Error recording history of %s: %v", app.ID, err)
		return
	}
	if commit != "" {
		s.addEvent(app.ID, "history_commit", commit)
	}
}

func (s *Server) addEvent(appID, eventType, details string) {
	if err := s.db.AddEvent(appID, eventType, details); err != nil {
		log.Printf("Error adding %s event for %s: %v", eventType, appID, err)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	historyOK := s.history.CheckHealth() == nil
	dbOK := s.db.Ping() == nil

	status := "healthy"
	if !historyOK || !dbOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:             status,
		Version:            Version,
		HistoryAccessible:  historyOK,
		DatabaseAccessible: dbOK,
	})
}

func (s *Server) handleListApps(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	apps, total, err := s.db.ListApplications(limit, offset)
	if err != nil {
		log.Printf("Error listing applications: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list applications", "")
		return
	}

	c.JSON(http.StatusOK, models.ListAppsResponse{
		Apps:   apps,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleCreateApp(c *gin.Context) {
	var req models.CreateAppRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !s.checkQuota(c) {
		return
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		Icon:           req.Icon,
		IconBackground: req.IconBackground,
		Mode:           req.Mode,
		Site: models.SiteConfig{
			Title:           req.Name,
			DefaultLanguage: defaultLanguage,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.CreateApplication(app); err != nil {
		log.Printf("Error creating application: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to create application", "")
		return
	}

	s.addEvent(app.ID, "created", app.Name)
	s.recordHistory(app)

	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleGetApp(c *gin.Context) {
	app, ok := s.loadApp(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdateApp(c *gin.Context) {
	var req models.UpdateInfoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	app, err := s.db.UpdateApplicationInfo(c.Param("id"), &req)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "application not found", "")
		return
	}
	if err != nil {
		log.Printf("Error updating application %s: %v", c.Param("id"), err)
		respondError(c, http.StatusInternalServerError, "failed to update application", "")
		return
	}

	s.addEvent(app.ID, "updated", app.Name)
	s.recordHistory(app)

	c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdateSite(c *gin.Context) {
	var params models.SiteConfigParams
	if !bindAndValidate(c, &params) {
		return
	}

	app, ok := s.loadApp(c)
	if !ok {
		return
	}

	app.Site = params.Apply(app.Site)
	if err := s.db.UpdateSiteConfig(app.ID, app.Site); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, http.StatusNotFound, "application not found", "")
			return
		}
		log.Printf("Error updating site config of %s: %v", app.ID, err)
		respondError(c, http.StatusInternalServerError, "failed to update site config", "")
		return
	}

	s.addEvent(app.ID, "site_config", "")
	s.recordHistory(app)

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

func (s *Server) handleCopyApp(c *gin.Context) {
	var req models.DuplicateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	source, ok := s.loadApp(c)
	if !ok {
		return
	}

	// Mode never changes: a copy always has the mode of its source
	if req.Mode != "" && req.Mode != source.Mode {
		respondError(c, http.StatusBadRequest, "mode must match the source application",
			fmt.Sprintf("source mode is %s", source.Mode))
		return
	}
	if !s.checkQuota(c) {
		return
	}

	now := time.Now().UTC()
	app := &models.Application{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    source.Description,
		Icon:           req.Icon,
		IconBackground: req.IconBackground,
		Mode:           source.Mode,
		Site:           source.Site,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.CreateApplication(app); err != nil {
		log.Printf("Error copying application %s: %v", source.ID, err)
		respondError(c, http.StatusInternalServerError, "failed to copy application", "")
		return
	}

	s.addEvent(app.ID, "copied", source.ID)
	s.recordHistory(app)

	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleExportApp(c *gin.Context) {
	app, ok := s.loadApp(c)
	if !ok {
		return
	}

	data, err := yaml.Marshal(models.NewSnapshot(app))
	if err != nil {
		log.Printf("Error exporting application %s: %v", app.ID, err)
		respondError(c, http.StatusInternalServerError, "failed to export application", "")
		return
	}

	c.JSON(http.StatusOK, models.ExportResponse{Data: string(data)})
}

func (s *Server) handleDeleteApp(c *gin.Context) {
	app, ok := s.loadApp(c)
	if !ok {
		return
	}

	if err := s.db.DeleteApplication(app.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(c, http.StatusNotFound, "application not found", "")
			return
		}
		log.Printf("Error deleting application %s: %v", app.ID, err)
		respondError(c, http.StatusInternalServerError, "failed to delete application", "")
		return
	}

	s.addEvent(app.ID, "deleted", app.Name)
	if _, err := s.history.RemoveApplication(app.ID, app.Name); err != nil {
		log.Printf("Error removing history of %s: %v", app.ID, err)
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleUsage(c *gin.Context) {
	count, err := s.db.CountApplications()
	if err != nil {
		log.Printf("Error counting applications: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to get usage", "")
		return
	}

	c.JSON(http.StatusOK, models.UsageResponse{
		Apps:     count,
		AppLimit: s.config.Plan.AppLimit,
	})
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)
	log.Printf("Starting server on %s", addr)
	return s.router.Run(addr)
}

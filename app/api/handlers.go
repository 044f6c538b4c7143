package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/feed"
	"github.com/lysyi3m/listing-comb/app/tasks"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// NewHandler builds the HTTP handlers. records and configCache may be nil
// when the output store cannot count rows or feeds do not come from RSS.
func NewHandler(runRepo database.RunRepository, records RecordCounter, configCache *feed.ConfigCache,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		runRepo:     runRepo,
		records:     records,
		configCache: configCache,
		scheduler:   scheduler,
		version:     version,
		startedAt:   time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if h.configCache != nil {
		health["loaded_configurations"] = h.configCache.GetConfigCount()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.runRepo.GetRunStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_run_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"runs":            stats.Runs,
		"failed_runs":     stats.FailedRuns,
		"appended":        stats.Appended,
		"skipped":         stats.Skipped,
		"last_run_at":     stats.LastRunAt,
		"last_run_status": stats.LastRunStatus,
	}

	if h.records != nil {
		if count, err := h.records.GetRecordCount(); err == nil {
			response["records"] = count
		} else {
			slog.Warn("Failed to count records", "error", err)
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.runRepo.GetRecentRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, newRunResponse(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  response,
		"total": len(response),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run id"})
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	items, err := h.runRepo.GetRunItems(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run_items", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	itemResponses := make([]RunItemResponse, 0, len(items))
	for _, item := range items {
		itemResponses = append(itemResponses, newRunItemResponse(item))
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   newRunResponse(*run),
		"items": itemResponses,
	})
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	if err := h.scheduler.EnqueueRun(tasks.TriggerAPI); err != nil {
		slog.Error("Error enqueueing run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Run enqueued",
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	if h.configCache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feeds are not read from RSS"})
		return
	}

	configs := h.configCache.GetEnabledConfigs()
	feeds := make([]map[string]interface{}, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, map[string]interface{}{
			"name":    feedConfig.Name,
			"label":   feedConfig.Label,
			"url":     feedConfig.URL,
			"timeout": (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeed(c *gin.Context) {
	if h.configCache == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feeds are not read from RSS"})
		return
	}

	name := c.Param("name")
	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":    feedConfig.Name,
		"label":   feedConfig.Label,
		"url":     feedConfig.URL,
		"enabled": feedConfig.Settings.Enabled,
		"timeout": (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wanderpress/wanderpress/app/database"
	"github.com/wanderpress/wanderpress/app/jobqueue"
)

func NewHandler(feedRepo database.FeedRepository, clusterRepo database.ClusterRepository,
	pipeline PipelineRunner, jobs *jobqueue.Queue) *Handler {
	return &Handler{
		feedRepo:    feedRepo,
		clusterRepo: clusterRepo,
		pipeline:    pipeline,
		jobs:        jobs,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"jobs": h.jobs.GetStats(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		stats["feeds"] = feedCount
	}
	if pendingClusters, err := h.clusterRepo.GetPendingCount(); err == nil {
		stats["pending_clusters"] = pendingClusters
	}

	c.JSON(http.StatusOK, stats)
}

// APIRunPipeline triggers one full aggregation pass synchronously and
// returns its summary. Partial failures are reported in the summary, not
// as an HTTP error.
func (h *Handler) APIRunPipeline(c *gin.Context) {
	summary := h.pipeline.Run(c.Request.Context())

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) APIGetPipelineStatus(c *gin.Context) {
	status := map[string]interface{}{}

	feeds, err := h.feedRepo.GetActiveFeeds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feeds"})
		return
	}

	feedInfos := make([]map[string]interface{}, 0, len(feeds))
	for _, f := range feeds {
		feedInfos = append(feedInfos, map[string]interface{}{
			"name":            f.Name,
			"url":             f.URL,
			"category":        f.Category,
			"last_fetched_at": f.LastFetchedAt,
		})
	}
	status["active_feeds"] = feedInfos

	if pendingClusters, err := h.clusterRepo.GetPendingCount(); err == nil {
		status["pending_clusters"] = pendingClusters
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) APIListJobs(c *gin.Context) {
	statusParam := c.Query("status")

	var jobs []jobqueue.Job
	if statusParam == "" {
		for _, s := range []jobqueue.Status{jobqueue.StatusPending, jobqueue.StatusProcessing,
			jobqueue.StatusCompleted, jobqueue.StatusFailed} {
			jobs = append(jobs, h.jobs.ListByStatus(s)...)
		}
	} else {
		switch jobqueue.Status(statusParam) {
		case jobqueue.StatusPending, jobqueue.StatusProcessing, jobqueue.StatusCompleted, jobqueue.StatusFailed:
			jobs = h.jobs.ListByStatus(jobqueue.Status(statusParam))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
	}

	if jobs == nil {
		jobs = []jobqueue.Job{}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

func (h *Handler) APIGetJobStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.GetStats())
}

func (h *Handler) APIGetJob(c *gin.Context) {
	job, ok := h.jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) APICancelJob(c *gin.Context) {
	id := c.Param("id")
	if !h.jobs.Cancel(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job not found or not pending"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "cancelled": true})
}

func (h *Handler) APIRetryJob(c *gin.Context) {
	id := c.Param("id")
	if !h.jobs.Retry(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job not found or not failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "retried": true})
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services"
	"github.com/sirupsen/logrus"
)

const heartbeatInterval = 15 * time.Second

type BundleHandler struct {
	bundleService *services.BundleService
	fileService   *services.FileService
	sseHub        *services.SSEHub
}

func NewBundleHandler(bundleService *services.BundleService, fileService *services.FileService, sseHub *services.SSEHub) *BundleHandler {
	return &BundleHandler{
		bundleService: bundleService,
		fileService:   fileService,
		sseHub:        sseHub,
	}
}

// StartBundle godoc
// @Summary Start a bundle run
// @Description Start building a downloadable archive for a batch. Full bundles complete missing content first.
// @Tags bundles
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param request body models.BundleSpec true "Bundle request"
// @Success 202 {object} models.BundleRunResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/batches/{id}/bundles [post]
func (h *BundleHandler) StartBundle(c *gin.Context) {
	var spec models.BundleSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	run, err := h.bundleService.Start(c.Param("id"), spec)
	if err != nil {
		respondError(c, "Failed to start bundle", err)
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// ListBundles godoc
// @Summary List the bundle runs of a batch
// @Tags bundles
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {array} models.BundleRunResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/batches/{id}/bundles [get]
func (h *BundleHandler) ListBundles(c *gin.Context) {
	runs, err := h.bundleService.ListRuns(c.Param("id"))
	if err != nil {
		respondError(c, "Failed to list bundles", err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetBundle godoc
// @Summary Get a bundle run
// @Tags bundles
// @Produce json
// @Param id path string true "Bundle run ID"
// @Success 200 {object} models.BundleRunResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/bundles/{id} [get]
func (h *BundleHandler) GetBundle(c *gin.Context) {
	run, err := h.bundleService.Get(c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get bundle", err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// CancelBundle godoc
// @Summary Cancel a bundle run
// @Description Cancellation takes effect between completion units. Finished runs cannot be cancelled.
// @Tags bundles
// @Produce json
// @Param id path string true "Bundle run ID"
// @Success 202 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/bundles/{id}/cancel [post]
func (h *BundleHandler) CancelBundle(c *gin.Context) {
	runID := c.Param("id")
	if err := h.bundleService.Cancel(runID); err != nil {
		respondError(c, "Failed to cancel bundle", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": runID, "message": "Cancellation requested"})
}

// GetBundleEvents godoc
// @Summary Get progress events of a bundle run
// @Tags bundles
// @Produce json
// @Param id path string true "Bundle run ID"
// @Param after query int false "Only events with a greater sequence number" default(0)
// @Success 200 {array} models.ProgressEvent
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/bundles/{id}/events [get]
func (h *BundleHandler) GetBundleEvents(c *gin.Context) {
	after, _ := strconv.Atoi(c.DefaultQuery("after", "0"))

	events, err := h.bundleService.Events(c.Param("id"), after)
	if err != nil {
		respondError(c, "Failed to get bundle events", err)
		return
	}
	if events == nil {
		events = []models.ProgressEvent{}
	}

	c.JSON(http.StatusOK, events)
}

// StreamBundle godoc
// @Summary Stream bundle progress via Server-Sent Events (SSE)
// @Description Replays past events, then streams live ones until the run reaches a terminal event. Honors Last-Event-ID.
// @Tags bundles
// @Produce text/event-stream
// @Param id path string true "Bundle run ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/bundles/{id}/stream [get]
func (h *BundleHandler) StreamBundle(c *gin.Context) {
	runID := c.Param("id")
	if _, err := h.bundleService.Get(runID); err != nil {
		respondError(c, "Failed to stream bundle", err)
		return
	}

	lastSeq := 0
	if v := c.GetHeader("Last-Event-ID"); v != "" {
		lastSeq, _ = strconv.Atoi(v)
	}

	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable buffering for nginx

	// Register before replaying so nothing emitted in between is lost
	clientChan := h.sseHub.RegisterClient(runID)
	defer h.sseHub.UnregisterClient(runID, clientChan)

	c.SSEvent("connected", gin.H{
		"run_id":  runID,
		"message": "Connected to bundle progress stream",
	})
	c.Writer.Flush()

	history, err := h.bundleService.Events(runID, lastSeq)
	if err != nil {
		logrus.Errorf("Failed to replay events for bundle run %s: %v", runID, err)
		return
	}
	for _, ev := range history {
		if !writeEvent(c, ev) {
			return
		}
		lastSeq = ev.Seq
		if ev.Terminal() {
			return
		}
	}

	// A run that is no longer executing has nothing more to send
	if !h.bundleService.IsActive(runID) {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			logrus.Infof("SSE client disconnected from bundle run %s", runID)
			return
		case ev, ok := <-clientChan:
			if !ok {
				return
			}
			if ev.Seq <= lastSeq {
				continue
			}
			if !writeEvent(c, ev) {
				return
			}
			lastSeq = ev.Seq
			if ev.Terminal() {
				return
			}
		case t := <-heartbeat.C:
			// A slow client may have been skipped by the hub; finish from the stored history
			if !h.bundleService.IsActive(runID) {
				rest, err := h.bundleService.Events(runID, lastSeq)
				if err != nil {
					logrus.Errorf("Failed to replay events for bundle run %s: %v", runID, err)
					return
				}
				for _, ev := range rest {
					if !writeEvent(c, ev) {
						return
					}
				}
				return
			}
			if _, err := c.Writer.Write(services.Heartbeat(t)); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeEvent(c *gin.Context, ev models.ProgressEvent) bool {
	message, err := services.FormatEvent(ev)
	if err != nil {
		logrus.Errorf("Failed to format progress event %d of run %s: %v", ev.Seq, ev.RunID, err)
		return true
	}
	if _, err := c.Writer.Write(message); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

// DownloadBundle godoc
// @Summary Download a bundle archive
// @Description Download the archive of a completed run using the signed token from its download URL
// @Tags bundles
// @Produce application/zip
// @Param id path string true "Bundle run ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/bundles/{id}/download [get]
func (h *BundleHandler) DownloadBundle(c *gin.Context) {
	runID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Download token is required"})
		return
	}

	fileID, err := h.fileService.ValidateDownloadToken(runID, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid download token", "details": err.Error()})
		return
	}

	file, f, err := h.fileService.Open(fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found", "details": err.Error()})
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.OriginalName))
	c.DataFromReader(http.StatusOK, file.FileSize, file.MimeType, f, nil)
}

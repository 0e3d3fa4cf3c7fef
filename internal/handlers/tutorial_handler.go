package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/scraper"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

type TutorialHandler struct {
	tutorialService *services.TutorialService
}

func NewTutorialHandler(tutorialService *services.TutorialService) *TutorialHandler {
	return &TutorialHandler{tutorialService: tutorialService}
}

// CreateBatch godoc
// @Summary Propose tutorials for a documentation URL
// @Description Crawl the URL and ask the language model backends for a batch of tutorial outlines
// @Tags batches
// @Accept json
// @Produce json
// @Param request body models.CreateBatchRequest true "Documentation URL"
// @Success 201 {object} models.BatchResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/batches [post]
func (h *TutorialHandler) CreateBatch(c *gin.Context) {
	var req models.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	if _, err := scraper.NormalizeURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL", "details": err.Error()})
		return
	}

	batch, err := h.tutorialService.CreateBatch(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, "Failed to create batch", err)
		return
	}
	if batch.RateLimit != nil {
		respondRateLimited(c, batch.RateLimit)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// ListBatches godoc
// @Summary List tutorial batches
// @Tags batches
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/batches [get]
func (h *TutorialHandler) ListBatches(c *gin.Context) {
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	batches, total, err := h.tutorialService.ListBatches(utils.CalculateOffset(page, pageSize), pageSize)
	if err != nil {
		respondError(c, "Failed to list batches", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       batches,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// GetBatch godoc
// @Summary Get a tutorial batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} models.BatchResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/batches/{id} [get]
func (h *TutorialHandler) GetBatch(c *gin.Context) {
	batch, err := h.tutorialService.GetBatch(c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get batch", err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// RegenerateBatch godoc
// @Summary Propose a fresh batch for the same URL
// @Description Crawl the batch URL again and store the new proposal as a child batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 201 {object} models.BatchResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/batches/{id}/regenerate [post]
func (h *TutorialHandler) RegenerateBatch(c *gin.Context) {
	batch, err := h.tutorialService.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to regenerate batch", err)
		return
	}
	if batch.RateLimit != nil {
		respondRateLimited(c, batch.RateLimit)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// GenerateContent godoc
// @Summary Generate tutorial content
// @Description Generate the text guide or video script of one tutorial, optionally refining the existing content
// @Tags tutorials
// @Accept json
// @Produce json
// @Param id path string true "Tutorial ID"
// @Param request body models.GenerateContentRequest true "Content request"
// @Success 200 {object} models.GenerateContentResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/tutorials/{id}/generate [post]
func (h *TutorialHandler) GenerateContent(c *gin.Context) {
	var req models.GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	resp, err := h.tutorialService.GenerateContent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, "Failed to generate content", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateContent godoc
// @Summary Save user-edited tutorial content
// @Tags tutorials
// @Accept json
// @Produce json
// @Param id path string true "Tutorial ID"
// @Param request body models.UpdateContentRequest true "Edited content"
// @Success 200 {object} models.OutlineItem
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/tutorials/{id}/content [put]
func (h *TutorialHandler) UpdateContent(c *gin.Context) {
	var req models.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	item, err := h.tutorialService.UpdateContent(c.Param("id"), req)
	if err != nil {
		respondError(c, "Failed to update content", err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func respondRateLimited(c *gin.Context, info *models.RateLimitInfo) {
	logrus.Warnf("Idea proposal rate limited, retry after %ds", info.RetryAfterSeconds)
	c.Header("Retry-After", strconv.Itoa(info.RetryAfterSeconds))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": info.Message, "rate_limit": info})
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/domain"
	"github.com/simonhust/trailer/internal/logger"
	"github.com/simonhust/trailer/internal/metrics"
)

// SubmissionHandler serves the intake and moderation endpoints.
type SubmissionHandler struct {
	repo    *database.SubmissionRepository
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewSubmissionHandler creates a submission handler.
func NewSubmissionHandler(repo *database.SubmissionRepository, m *metrics.Metrics, log logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{repo: repo, metrics: m, log: log}
}

// SubmitRequest is the intake payload.
type SubmitRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	URL      string `json:"url"       binding:"required,url"`
}

// Submit handles POST /api/v1/submissions.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.repo.Create(c.Request.Context(), req.SourceID, req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			h.metrics.SubmissionsTotal.WithLabelValues("capacity_exceeded").Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "submission queue is full, try again later"})
			return
		}
		h.metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		h.log.Error("failed to create submission",
			logger.String("source_id", req.SourceID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create submission"})
		return
	}

	h.metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListPending handles GET /api/v1/submissions/pending.
func (h *SubmissionHandler) ListPending(c *gin.Context) {
	submissions, err := h.repo.ListPending(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list pending submissions", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(submissions),
		"submissions": submissions,
	})
}

// ReviewRequest is the moderation payload.
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
}

// Review handles POST /api/v1/submissions/:id/review.
func (h *SubmissionHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be approve or reject"})
		return
	}

	reviewer := c.GetString(ContextKeyUsername)
	approve := req.Decision == "approve"

	err := h.repo.Review(c.Request.Context(), c.Param("id"), approve, reviewer)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.metrics.ReviewsTotal.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": "submission not found or already decided"})
			return
		}
		h.log.Error("failed to review submission",
			logger.String("submission_id", c.Param("id")),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review submission"})
		return
	}

	outcome := "rejected"
	if approve {
		outcome = "approved"
	}
	h.metrics.ReviewsTotal.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

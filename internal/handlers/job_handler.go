package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

type JobHandler struct {
	llm *services.LLMService
}

// NewJobHandler accepts a nil service; extraction then answers 503.
func NewJobHandler(llm *services.LLMService) *JobHandler {
	return &JobHandler{llm: llm}
}

// ParseJob is POST /jobs/extract.
func (h *JobHandler) ParseJob(c *gin.Context) {
	const op = "JobHandler.ParseJob"

	if h.llm == nil {
		writeError(c, apperrors.E(apperrors.CodeUnavailable, op, "job extraction is not configured", nil))
		return
	}
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, op, err)
		return
	}
	data, err := h.llm.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

type PredictionHandler struct {
	svc *services.PredictionService
}

func NewPredictionHandler(svc *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

// ForApplication is GET /applications/:id/prediction.
func (h *PredictionHandler) ForApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.PredictApplication(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Score is POST /predictions: scores an application without saving it.
func (h *PredictionHandler) Score(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "PredictionHandler.Score", err)
		return
	}
	p, err := h.svc.PredictRecord(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Dashboard is GET /predictions.
func (h *PredictionHandler) Dashboard(c *gin.Context) {
	sum, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

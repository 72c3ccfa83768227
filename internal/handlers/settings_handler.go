package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

type SettingsHandler struct {
	svc *services.SettingsService
}

func NewSettingsHandler(svc *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req dtos.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "SettingsHandler.Update", err)
		return
	}
	s, err := h.svc.Update(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

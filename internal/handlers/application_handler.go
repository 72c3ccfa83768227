package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-success-tracker/internal/dtos"
	"github.com/justsurfingit/job-success-tracker/internal/services"
)

type ApplicationHandler struct {
	svc *services.ApplicationService
}

func NewApplicationHandler(svc *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

// Create is POST /applications.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req dtos.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "ApplicationHandler.Create", err)
		return
	}
	app, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// List is GET /applications?sort=&order=&status=.
func (h *ApplicationHandler) List(c *gin.Context) {
	var q dtos.ListApplicationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, "ApplicationHandler.List", err)
		return
	}
	apps, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps, "count": len(apps)})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	app, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dtos.ApplicationPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "ApplicationHandler.Update", err)
		return
	}
	app, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) Events(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	evs, err := h.svc.Events(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application_id": id, "events": evs})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/job-success-tracker/internal/apperrors"
)

type APIError struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperrors.HTTPStatus(err)

	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{Code: ae.Code, Message: ae.Message})
		return
	}
	c.JSON(status, APIError{Code: apperrors.CodeInternal, Message: http.StatusText(status)})
}

// writeBindError answers 400 for bodies or queries gin could not bind.
func writeBindError(c *gin.Context, op string, err error) {
	writeError(c, apperrors.E(apperrors.CodeInvalidArgument, op, "invalid request: "+err.Error(), err))
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(c, apperrors.E(apperrors.CodeInvalidArgument, "parseID", "id must be a positive integer", err))
		return 0, false
	}
	return uint(id), true
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

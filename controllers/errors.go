package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

const CodeInternal = "INTERNAL"

var ErrInternal = errors.New("internal server error")

// StatusForKind maps a domain error kind onto an HTTP status. Workflow and
// identity mismatches are request errors, not authorization failures.
func StatusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidRequest, services.KindWorkflowMismatch, services.KindIdentityMismatch:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondServiceError(c *gin.Context, err error) {
	var se *services.ServiceError
	if errors.As(err, &se) {
		utils.RespondErrorCode(c, StatusForKind(se.Kind), string(se.Kind), se)
		return
	}

	utils.ErrorLogger.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	utils.RespondErrorCode(c, http.StatusInternalServerError, CodeInternal, ErrInternal)
}

func respondBindingError(c *gin.Context, err error) {
	utils.RespondErrorCode(c, http.StatusBadRequest, string(services.KindInvalidRequest),
		errors.New(utils.ValidationMessage(err)))
}

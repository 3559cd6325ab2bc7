package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/auth"
	applog "github.com/tazhibayda/mytinerary/internal/log"
)

type errorResp struct {
	Error string `json:"error" example:"invalid credentials"`
}

type validationResp struct {
	Error  string            `json:"error" example:"validation failed"`
	Errors []auth.FieldError `json:"errors"`
}

func statusOf(k auth.Kind) int {
	switch k {
	case auth.KindValidation:
		return http.StatusUnprocessableEntity
	case auth.KindConflict:
		return http.StatusConflict
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindUnauthorized:
		return http.StatusUnauthorized
	case auth.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err and aborts. Only the client-safe message leaves the process.
func (h *Handler) fail(c *gin.Context, err error) {
	var ae *auth.Error
	if !errors.As(err, &ae) {
		ae = auth.Internal(err)
	}
	if ae.Kind == auth.KindInternal {
		applog.WithDD(c.Request.Context(), h.Log).Error("request failed",
			zap.String("route", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
	}
	if ae.Kind == auth.KindValidation {
		c.AbortWithStatusJSON(statusOf(ae.Kind), validationResp{Error: ae.Message, Errors: ae.Fields})
		return
	}
	c.AbortWithStatusJSON(statusOf(ae.Kind), errorResp{Error: ae.Message})
}

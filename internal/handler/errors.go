package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/errs"
	"go.uber.org/zap"
)

const msgInvalidLogin = "Invalid email or password"

// writeError maps a service error onto a status code and a body safe to show callers.
// Anything unclassified is logged and reported as a bare 500.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidCredential), errors.Is(err, errs.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidLogin})
	case errors.Is(err, errs.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, errs.ErrSelfRegisterDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "admin self-registration is disabled"})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, errs.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		_ = c.Error(err)
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// validationMessage strips the sentinel prefix so the body reads "subject is required".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, errs.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(errs.ErrValidation.Error())+2:]
	}
	return msg
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "details": err.Error()})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

const defaultPageLimit = 50

// pagination reads skip/limit query parameters with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = defaultPageLimit
	}
	return offset, limit
}

// respondError maps application error codes onto HTTP statuses. Anything
// uncoded is an internal error and the raw cause stays out of the response.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAlreadyExists:
		status = http.StatusConflict
	case apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.CodeMissingVariable:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeInvocationFailed:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": appErr.Message, "code": string(appErr.Code)})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mediavault/internal/service"
	"mediavault/utils"

	"github.com/gin-gonic/gin"
)

// respondErr maps service errors to HTTP statuses. Validation failures are
// shown to callers verbatim; anything else gets a generic 500 body.
func respondErr(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		utils.FailStatus(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrObjectNotFound),
		errors.Is(err, service.ErrObjectNotTrashed),
		errors.Is(err, service.ErrImportNotFound):
		utils.FailStatus(c, http.StatusNotFound, err)
	case errors.Is(err, service.ErrImportCannotCancel),
		errors.Is(err, service.ErrScanAlreadyRunning):
		utils.FailStatus(c, http.StatusConflict, err)
	default:
		var dimErr *service.DimensionError
		if errors.As(err, &dimErr) {
			utils.FailStatus(c, http.StatusBadRequest, err)
			return
		}
		utils.FailStatus(c, http.StatusInternalServerError, err)
	}
}

func paramUint64(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		utils.FailStatus(c, http.StatusBadRequest, errors.New("invalid id"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

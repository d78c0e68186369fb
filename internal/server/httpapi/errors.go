package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP status codes. Internal
// failures are not echoed back to the client.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrConfiguration):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

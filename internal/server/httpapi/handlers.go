// Package httpapi exposes the gateway operations over HTTP. All operations
// are POST endpoints under /api with JSON bodies. Management routes
// authenticate with a GitHub access token; transfer routes authenticate with
// a user API key, except that the scratch zone accepts anonymous uploads.
package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/logging"
	"github.com/kachery/gateway/internal/server/admission"
	"github.com/kachery/gateway/internal/server/directory"
	"github.com/kachery/gateway/internal/server/identity"
	"github.com/kachery/gateway/internal/server/services"
)

// Handlers holds the services behind the HTTP surface.
type Handlers struct {
	directory *directory.Directory
	uploads   *services.UploadService
	downloads *services.DownloadService
	usage     *services.UsageService
	oracle    identity.Oracle
	gate      *admission.Gate
	logger    logging.Logger
}

func NewHandlers(
	dir *directory.Directory,
	uploads *services.UploadService,
	downloads *services.DownloadService,
	usage *services.UsageService,
	oracle identity.Oracle,
	gate *admission.Gate,
	logger logging.Logger,
) *Handlers {
	return &Handlers{
		directory: dir,
		uploads:   uploads,
		downloads: downloads,
		usage:     usage,
		oracle:    oracle,
		gate:      gate,
		logger:    logger,
	}
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// managementCaller resolves the caller of a management route. The GitHub
// access token is mandatory.
func (h *Handlers) managementCaller(c *gin.Context) (string, error) {
	token := bearerToken(c)
	if token == "" {
		return "", fmt.Errorf("%w: missing access token", common.ErrUnauthorized)
	}
	return h.oracle.ResolveToken(c.Request.Context(), token)
}

// transferCaller resolves the caller of a transfer route by API key. A
// missing key yields the anonymous caller; an invalid one is rejected.
func (h *Handlers) transferCaller(c *gin.Context) (string, error) {
	key := bearerToken(c)
	if key == "" {
		return "", nil
	}
	u, err := h.directory.GetUserByAPIKey(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid api key", common.ErrUnauthorized)
		}
		return "", err
	}
	return u.ID, nil
}

func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

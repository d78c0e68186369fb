package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/directory"
	"github.com/kachery/gateway/internal/server/models"
)

func (h *Handlers) addZone(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req addZoneRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.ZoneName == "" {
		writeError(c, fmt.Errorf("%w: zoneName is required", common.ErrValidation))
		return
	}
	if err := checkLen("zoneName", req.ZoneName, maxZoneNameLen); err != nil {
		writeError(c, err)
		return
	}

	owner := caller
	if req.OwnerID != "" && req.OwnerID != caller {
		if !h.directory.IsSiteAdmin(caller) {
			writeError(c, fmt.Errorf("%w: only site admins may set another owner", common.ErrUnauthorized))
			return
		}
		if err := checkLen("ownerId", req.OwnerID, maxUserIDLen); err != nil {
			writeError(c, err)
			return
		}
		owner = req.OwnerID
	}

	zone := &models.Zone{Name: req.ZoneName, OwnerID: owner}
	if err := h.directory.CreateZone(c.Request.Context(), zone); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) getZone(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req getZoneRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, false)
	if err != nil {
		writeError(c, err)
		return
	}
	if req.IncludeCredentials {
		if !directory.AdminAllowed(zone, caller) && !h.directory.IsSiteAdmin(caller) {
			writeError(c, fmt.Errorf("%w: not authorized to read zone credentials", common.ErrUnauthorized))
			return
		}
		zone, err = h.directory.GetZone(c.Request.Context(), req.ZoneName, true)
		if err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, zoneToDTO(zone))
}

func (h *Handlers) getZones(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var zones []*models.Zone
	if h.directory.IsSiteAdmin(caller) {
		zones, err = h.directory.GetAllZones(c.Request.Context())
	} else {
		zones, err = h.directory.GetZonesForUser(c.Request.Context(), caller)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]zoneDTO, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneToDTO(z))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) deleteZone(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req deleteZoneRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, false)
	if err != nil {
		writeError(c, err)
		return
	}
	if !directory.AdminAllowed(zone, caller) && !h.directory.IsSiteAdmin(caller) {
		writeError(c, fmt.Errorf("%w: not authorized to delete zone %q", common.ErrUnauthorized, req.ZoneName))
		return
	}
	if err := h.directory.DeleteZone(c.Request.Context(), req.ZoneName); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) setZoneInfo(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req setZoneInfoRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, false)
	if err != nil {
		writeError(c, err)
		return
	}
	if !directory.AdminAllowed(zone, caller) && !h.directory.IsSiteAdmin(caller) {
		writeError(c, fmt.Errorf("%w: not authorized to modify zone %q", common.ErrUnauthorized, req.ZoneName))
		return
	}

	update, err := zoneUpdateFromRequest(&req)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.directory.UpdateZone(c.Request.Context(), req.ZoneName, update); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// zoneUpdateFromRequest maps the wire shape onto the tri-state update model:
// an absent field is untouched, an empty string unsets the stored value.
func zoneUpdateFromRequest(req *setZoneInfoRequest) (models.ZoneUpdate, error) {
	var update models.ZoneUpdate

	if req.Members != nil {
		members, err := membersFromDTO(*req.Members)
		if err != nil {
			return update, err
		}
		update.Members = models.Set(members)
	}
	if req.PublicDownload != nil {
		update.PublicDownload = models.Set(*req.PublicDownload)
	}
	if req.PublicUpload != nil {
		update.PublicUpload = models.Set(*req.PublicUpload)
	}

	strField := func(name string, v *string, max int) (models.Field[string], error) {
		if v == nil {
			return models.Field[string]{}, nil
		}
		if *v == "" {
			return models.Clear[string](), nil
		}
		if err := checkLen(name, *v, max); err != nil {
			return models.Field[string]{}, err
		}
		return models.Set(*v), nil
	}

	var err error
	if update.BucketURI, err = strField("bucketUri", req.BucketURI, maxBucketURILen); err != nil {
		return update, err
	}
	if update.Directory, err = strField("directory", req.Directory, maxDirectoryLen); err != nil {
		return update, err
	}
	if update.Credentials, err = strField("credentials", req.Credentials, maxCredentialsLen); err != nil {
		return update, err
	}
	return update, nil
}

func (h *Handlers) computeUsage(c *gin.Context) {
	caller, err := h.managementCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req usageRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	// Non-admins only see their own usage.
	if !h.directory.IsSiteAdmin(caller) {
		req.UserID = caller
	}

	rows, err := h.usage.ComputeUsage(c.Request.Context(), req.UserID, req.ZoneName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

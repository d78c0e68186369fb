package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/directory"
)

func (h *Handlers) initiateFileUpload(c *gin.Context) {
	caller, err := h.transferCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req initiateFileUploadRequest
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
	// Proof of work is verified before anything else is touched.
	if err := h.gate.Check(req.Hash, req.WorkToken); err != nil {
		writeError(c, err)
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, true)
	if err != nil {
		writeError(c, err)
		return
	}
	if !directory.UploadAllowed(zone, caller) {
		writeError(c, fmt.Errorf("%w: not authorized to upload to zone %q", common.ErrUnauthorized, req.ZoneName))
		return
	}

	res, err := h.uploads.Initiate(c.Request.Context(), zone, caller, req.Size, req.Hash, req.HashAlg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, initiateFileUploadResponse{
		AlreadyExists:   res.AlreadyExists,
		AlreadyPending:  res.AlreadyPending,
		SignedUploadURL: res.SignedUploadURL,
		ObjectKey:       res.ObjectKey,
	})
}

func (h *Handlers) finalizeFileUpload(c *gin.Context) {
	caller, err := h.transferCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req finalizeFileUploadRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.ZoneName == "" {
		writeError(c, fmt.Errorf("%w: zoneName is required", common.ErrValidation))
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, true)
	if err != nil {
		writeError(c, err)
		return
	}
	if !directory.UploadAllowed(zone, caller) {
		writeError(c, fmt.Errorf("%w: not authorized to upload to zone %q", common.ErrUnauthorized, req.ZoneName))
		return
	}

	if err := h.uploads.Finalize(c.Request.Context(), zone, caller, req.Size, req.Hash, req.HashAlg, req.ObjectKey); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) findFile(c *gin.Context) {
	caller, err := h.transferCaller(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req findFileRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.ZoneName == "" {
		writeError(c, fmt.Errorf("%w: zoneName is required", common.ErrValidation))
		return
	}

	zone, err := h.directory.GetZone(c.Request.Context(), req.ZoneName, true)
	if err != nil {
		writeError(c, err)
		return
	}
	if !directory.DownloadAllowed(zone, caller) {
		writeError(c, fmt.Errorf("%w: not authorized to download from zone %q", common.ErrUnauthorized, req.ZoneName))
		return
	}

	res, err := h.downloads.FindFile(c.Request.Context(), zone, caller, req.Hash, req.HashAlg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, findFileResponse{
		Found:     res.Found,
		URL:       res.URL,
		Size:      res.Size,
		BucketURI: res.BucketURI,
		ObjectKey: res.ObjectKey,
		CacheHit:  res.CacheHit,
	})
}

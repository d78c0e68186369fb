package directory

import "github.com/kachery/gateway/internal/server/models"

// UploadAllowed reports whether userID may upload into the zone. userID may
// be empty (anonymous); only a zone with the AnonymousUpload attribute
// accepts that.
func UploadAllowed(zone *models.Zone, userID string) bool {
	if zone.AnonymousUpload {
		return true
	}
	if userID == "" {
		return false
	}
	if zone.PublicUpload || zone.OwnerID == userID {
		return true
	}
	m, ok := zone.Grant(userID)
	return ok && m.UploadFiles
}

// DownloadAllowed reports whether userID may download from the zone.
func DownloadAllowed(zone *models.Zone, userID string) bool {
	if zone.PublicDownload {
		return true
	}
	if userID == "" {
		return false
	}
	if zone.OwnerID == userID {
		return true
	}
	m, ok := zone.Grant(userID)
	return ok && m.DownloadFiles
}

// AdminAllowed reports whether userID may manage the zone (update or delete
// it, or read its credentials).
func AdminAllowed(zone *models.Zone, userID string) bool {
	if userID == "" {
		return false
	}
	if zone.OwnerID == userID {
		return true
	}
	m, ok := zone.Grant(userID)
	return ok && m.Admin
}

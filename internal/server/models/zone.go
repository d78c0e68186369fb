// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"

	"github.com/kachery/gateway/internal/common"
)

// RedactedCredentials is returned in place of zone credentials whenever the
// caller did not explicitly request them or is not authorized to see them.
const RedactedCredentials = "********"

// ZoneMember is a per-user grant inside a zone.
type ZoneMember struct {
	UserID        string `json:"userId"`
	Admin         bool   `json:"admin"`
	UploadFiles   bool   `json:"uploadFiles"`
	DownloadFiles bool   `json:"downloadFiles"`
}

// Zone is a tenant namespace with its own backing bucket, access policy and
// member grants.
type Zone struct {
	// Name is the unique zone name (natural key).
	Name string
	// OwnerID is the user id of the owning user.
	OwnerID string
	// Members lists per-user grants.
	Members []ZoneMember
	// PublicDownload allows anyone to download from the zone.
	PublicDownload bool
	// PublicUpload allows any authenticated user to upload to the zone.
	PublicUpload bool
	// AnonymousUpload allows uploads without any user identity. It is not
	// persisted: the directory resolves it once per load for the
	// distinguished scratch zone, so authorization predicates never compare
	// zone names.
	AnonymousUpload bool

	// BucketURI locates the backing object store, e.g. "s3://my-bucket".
	// A zone without a bucket URI is not yet provisioned and cannot serve
	// uploads or downloads.
	BucketURI string
	// Directory is an optional key prefix under which all objects of the
	// zone are stored.
	Directory string
	// Credentials holds the backing-store credentials (JSON). Write-only to
	// ordinary readers; see RedactedCredentials.
	Credentials string
}

// Validate checks the shape of a zone read back from the record store.
// A failure is an internal consistency error, not a request error.
func (z *Zone) Validate() error {
	if z.Name == "" {
		return fmt.Errorf("%w: zone has empty name", common.ErrInternalConsistency)
	}
	for _, m := range z.Members {
		if m.UserID == "" {
			return fmt.Errorf("%w: zone %q has member with empty user id", common.ErrInternalConsistency, z.Name)
		}
	}
	return nil
}

// Grant returns the member grant for userID, if any.
func (z *Zone) Grant(userID string) (ZoneMember, bool) {
	for _, m := range z.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return ZoneMember{}, false
}

// ZoneUpdate is a partial update of a zone. Omitted fields are untouched,
// cleared fields are unset in the record store.
type ZoneUpdate struct {
	Members        Field[[]ZoneMember]
	PublicDownload Field[bool]
	PublicUpload   Field[bool]
	BucketURI      Field[string]
	Directory      Field[string]
	Credentials    Field[string]
}

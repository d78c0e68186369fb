package httpapi

import (
	"fmt"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/models"
)

// Field length limits enforced at the boundary.
const (
	maxZoneNameLen            = 100
	maxUserIDLen              = 100
	maxNameLen                = 200
	maxEmailLen               = 200
	maxResearchDescriptionLen = 2000
	maxBucketURILen           = 200
	maxCredentialsLen         = 2000
	maxDirectoryLen           = 200
)

func checkLen(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%w: %s exceeds %d characters", common.ErrValidation, field, max)
	}
	return nil
}

type zoneMemberDTO struct {
	UserID        string `json:"userId"`
	Admin         bool   `json:"admin"`
	UploadFiles   bool   `json:"uploadFiles"`
	DownloadFiles bool   `json:"downloadFiles"`
}

func membersFromDTO(in []zoneMemberDTO) ([]models.ZoneMember, error) {
	out := make([]models.ZoneMember, 0, len(in))
	for _, m := range in {
		if m.UserID == "" {
			return nil, fmt.Errorf("%w: member with empty user id", common.ErrValidation)
		}
		if err := checkLen("member userId", m.UserID, maxUserIDLen); err != nil {
			return nil, err
		}
		out = append(out, models.ZoneMember{
			UserID:        m.UserID,
			Admin:         m.Admin,
			UploadFiles:   m.UploadFiles,
			DownloadFiles: m.DownloadFiles,
		})
	}
	return out, nil
}

func membersToDTO(in []models.ZoneMember) []zoneMemberDTO {
	out := make([]zoneMemberDTO, 0, len(in))
	for _, m := range in {
		out = append(out, zoneMemberDTO{
			UserID:        m.UserID,
			Admin:         m.Admin,
			UploadFiles:   m.UploadFiles,
			DownloadFiles: m.DownloadFiles,
		})
	}
	return out
}

type zoneDTO struct {
	ZoneName        string          `json:"zoneName"`
	OwnerID         string          `json:"ownerId"`
	Members         []zoneMemberDTO `json:"members"`
	PublicDownload  bool            `json:"publicDownload"`
	PublicUpload    bool            `json:"publicUpload"`
	AnonymousUpload bool            `json:"anonymousUpload"`
	BucketURI       string          `json:"bucketUri,omitempty"`
	Directory       string          `json:"directory,omitempty"`
	Credentials     string          `json:"credentials,omitempty"`
}

func zoneToDTO(z *models.Zone) zoneDTO {
	return zoneDTO{
		ZoneName:        z.Name,
		OwnerID:         z.OwnerID,
		Members:         membersToDTO(z.Members),
		PublicDownload:  z.PublicDownload,
		PublicUpload:    z.PublicUpload,
		AnonymousUpload: z.AnonymousUpload,
		BucketURI:       z.BucketURI,
		Directory:       z.Directory,
		Credentials:     z.Credentials,
	}
}

type userDTO struct {
	UserID              string `json:"userId"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	ResearchDescription string `json:"researchDescription,omitempty"`
}

func userToDTO(u *models.User) userDTO {
	return userDTO{
		UserID:              u.ID,
		Name:                u.Name,
		Email:               u.Email,
		ResearchDescription: u.ResearchDescription,
	}
}

type addZoneRequest struct {
	ZoneName string `json:"zoneName"`
	// OwnerID defaults to the caller; only site admins may set another owner.
	OwnerID string `json:"ownerId,omitempty"`
}

type getZoneRequest struct {
	ZoneName string `json:"zoneName"`
	// IncludeCredentials requires zone admin rights.
	IncludeCredentials bool `json:"includeCredentials,omitempty"`
}

type deleteZoneRequest struct {
	ZoneName string `json:"zoneName"`
}

// setZoneInfoRequest carries a partial zone update. Nil pointers leave the
// field untouched; an empty string unsets an optional field.
type setZoneInfoRequest struct {
	ZoneName       string           `json:"zoneName"`
	Members        *[]zoneMemberDTO `json:"members,omitempty"`
	PublicDownload *bool            `json:"publicDownload,omitempty"`
	PublicUpload   *bool            `json:"publicUpload,omitempty"`
	BucketURI      *string          `json:"bucketUri,omitempty"`
	Directory      *string          `json:"directory,omitempty"`
	Credentials    *string          `json:"credentials,omitempty"`
}

type addUserRequest struct {
	UserID              string `json:"userId"`
	Name                string `json:"name,omitempty"`
	Email               string `json:"email,omitempty"`
	ResearchDescription string `json:"researchDescription,omitempty"`
}

type getUserRequest struct {
	UserID string `json:"userId"`
}

type setUserInfoRequest struct {
	UserID              string  `json:"userId"`
	Name                *string `json:"name,omitempty"`
	Email               *string `json:"email,omitempty"`
	ResearchDescription *string `json:"researchDescription,omitempty"`
}

type resetUserAPIKeyRequest struct {
	UserID string `json:"userId"`
}

type resetUserAPIKeyResponse struct {
	APIKey string `json:"apiKey"`
}

type usageRequest struct {
	UserID   string `json:"userId,omitempty"`
	ZoneName string `json:"zoneName,omitempty"`
}

type initiateFileUploadRequest struct {
	ZoneName  string `json:"zoneName"`
	Size      int64  `json:"size"`
	Hash      string `json:"hash"`
	HashAlg   string `json:"hashAlg"`
	WorkToken string `json:"workToken"`
}

type initiateFileUploadResponse struct {
	AlreadyExists   bool   `json:"alreadyExists"`
	AlreadyPending  bool   `json:"alreadyPending"`
	SignedUploadURL string `json:"signedUploadUrl,omitempty"`
	ObjectKey       string `json:"objectKey,omitempty"`
}

type finalizeFileUploadRequest struct {
	ZoneName  string `json:"zoneName"`
	Size      int64  `json:"size"`
	Hash      string `json:"hash"`
	HashAlg   string `json:"hashAlg"`
	ObjectKey string `json:"objectKey,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type findFileRequest struct {
	ZoneName string `json:"zoneName"`
	Hash     string `json:"hash"`
	HashAlg  string `json:"hashAlg"`
}

type findFileResponse struct {
	Found     bool   `json:"found"`
	URL       string `json:"url,omitempty"`
	Size      int64  `json:"size,omitempty"`
	BucketURI string `json:"bucketUri,omitempty"`
	ObjectKey string `json:"objectKey,omitempty"`
	CacheHit  bool   `json:"cacheHit,omitempty"`
}

package models

// Upload stages.
const (
	StageInitiate = "initiate"
	StageFinalize = "finalize"
)

// UploadRecord is an append-only audit entry for one upload stage. Records
// are never updated or deleted; only "initiate" records count toward usage.
type UploadRecord struct {
	Stage string
	// Timestamp is milliseconds since the epoch.
	Timestamp int64
	ZoneName  string
	BucketURI string
	UserID    string
	Size      int64
	Hash      string
	HashAlg   string
	ObjectKey string
}

// DownloadRecord is an append-only audit entry for one issued download URL.
// It doubles as a short-horizon cache: a record within the last ten minutes
// lets the resolver reuse the issued URL instead of signing a new one.
type DownloadRecord struct {
	// Timestamp is milliseconds since the epoch.
	Timestamp int64
	ZoneName  string
	BucketURI string
	// UserID may be empty for anonymous downloads.
	UserID      string
	Size        int64
	Hash        string
	HashAlg     string
	ObjectKey   string
	DownloadURL string
}

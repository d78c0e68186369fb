package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/repositories/downloadrecords"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
	"github.com/kachery/gateway/internal/server/repositories/uploadrecords"
)

// UsageRow summarizes transfer activity for one (user, zone, day) key. Day
// is a calendar date in server-local time, formatted YYYY-MM-DD.
type UsageRow struct {
	UserID             string `json:"userId"`
	ZoneName           string `json:"zoneName"`
	Day                string `json:"day"`
	NumDownloads       int64  `json:"numDownloads"`
	NumBytesDownloaded int64  `json:"numBytesDownloaded"`
	NumUploads         int64  `json:"numUploads"`
	NumBytesUploaded   int64  `json:"numBytesUploaded"`
}

// UsageService aggregates the audit-record streams. Only "initiate" upload
// records count, so a finalized upload is not counted twice.
type UsageService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewUsageService(db *sql.DB, repos repomanager.RepositoryManager) *UsageService {
	return &UsageService{db: db, repos: repos}
}

type usageKey struct {
	userID   string
	zoneName string
	day      string
}

func recordDay(timestampMs int64) string {
	return time.UnixMilli(timestampMs).Local().Format("2006-01-02")
}

// ComputeUsage returns one row per (user, zone, day) with counts and byte
// sums for downloads and uploads. Empty filter fields match everything. Row
// order is unspecified.
func (s *UsageService) ComputeUsage(ctx context.Context, userID, zoneName string) ([]*UsageRow, error) {
	downloads, err := s.repos.DownloadRecords(s.db).Select(ctx, downloadrecords.Filter{
		UserID:   userID,
		ZoneName: zoneName,
	})
	if err != nil {
		return nil, err
	}
	uploads, err := s.repos.UploadRecords(s.db).Select(ctx, uploadrecords.Filter{
		UserID:   userID,
		ZoneName: zoneName,
		Stage:    models.StageInitiate,
	})
	if err != nil {
		return nil, err
	}

	rows := make(map[usageKey]*UsageRow)
	row := func(k usageKey) *UsageRow {
		r, ok := rows[k]
		if !ok {
			r = &UsageRow{UserID: k.userID, ZoneName: k.zoneName, Day: k.day}
			rows[k] = r
		}
		return r
	}

	for _, d := range downloads {
		r := row(usageKey{userID: d.UserID, zoneName: d.ZoneName, day: recordDay(d.Timestamp)})
		r.NumDownloads++
		r.NumBytesDownloaded += d.Size
	}
	for _, u := range uploads {
		r := row(usageKey{userID: u.UserID, zoneName: u.ZoneName, day: recordDay(u.Timestamp)})
		r.NumUploads++
		r.NumBytesUploaded += u.Size
	}

	out := make([]*UsageRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out, nil
}

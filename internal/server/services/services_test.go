package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/objectstore"
	"github.com/kachery/gateway/internal/server/repositories/downloadrecords"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
	"github.com/kachery/gateway/internal/server/repositories/uploadrecords"
	"github.com/kachery/gateway/internal/server/repositories/users"
	"github.com/kachery/gateway/internal/server/repositories/zones"
)

// Shared test doubles for the service suite.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore is an in-memory object store. Signed URLs are unique per signing
// call so tests can tell a reused URL from a freshly issued one.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]int64
	signs   int
	heads   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]int64)}
}

func (s *fakeStore) put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
}

func (s *fakeStore) ObjectExists(_ context.Context, _ objectstore.BucketRef, key string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heads++
	size, ok := s.objects[key]
	return ok, size, nil
}

func (s *fakeStore) SignedUploadURL(_ context.Context, ref objectstore.BucketRef, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signs++
	return fmt.Sprintf("https://signed.example/put/%s/%s?n=%d", ref.URI, key, s.signs), nil
}

func (s *fakeStore) SignedDownloadURL(_ context.Context, ref objectstore.BucketRef, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signs++
	return fmt.Sprintf("https://signed.example/get/%s/%s?n=%d", ref.URI, key, s.signs), nil
}

func (s *fakeStore) signCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signs
}

type fakeUploadRecords struct {
	records []*models.UploadRecord
}

func (r *fakeUploadRecords) Insert(_ context.Context, rec *models.UploadRecord) error {
	c := *rec
	r.records = append(r.records, &c)
	return nil
}

func (r *fakeUploadRecords) Select(_ context.Context, f uploadrecords.Filter) ([]*models.UploadRecord, error) {
	var out []*models.UploadRecord
	for _, rec := range r.records {
		if f.UserID != "" && rec.UserID != f.UserID {
			continue
		}
		if f.ZoneName != "" && rec.ZoneName != f.ZoneName {
			continue
		}
		if f.Stage != "" && rec.Stage != f.Stage {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeDownloadRecords struct {
	records []*models.DownloadRecord
}

func (r *fakeDownloadRecords) Insert(_ context.Context, rec *models.DownloadRecord) error {
	c := *rec
	r.records = append(r.records, &c)
	return nil
}

func (r *fakeDownloadRecords) FindRecent(_ context.Context, zoneName, hash, hashAlg string, minTimestamp int64) (*models.DownloadRecord, error) {
	var best *models.DownloadRecord
	for _, rec := range r.records {
		if rec.ZoneName != zoneName || rec.Hash != hash || rec.HashAlg != hashAlg {
			continue
		}
		if rec.Timestamp < minTimestamp {
			continue
		}
		if best == nil || rec.Timestamp > best.Timestamp {
			best = rec
		}
	}
	if best == nil {
		return nil, common.ErrNotFound
	}
	c := *best
	return &c, nil
}

func (r *fakeDownloadRecords) Select(_ context.Context, f downloadrecords.Filter) ([]*models.DownloadRecord, error) {
	var out []*models.DownloadRecord
	for _, rec := range r.records {
		if f.UserID != "" && rec.UserID != f.UserID {
			continue
		}
		if f.ZoneName != "" && rec.ZoneName != f.ZoneName {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeRepoManager struct {
	uploads   *fakeUploadRecords
	downloads *fakeDownloadRecords
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		uploads:   &fakeUploadRecords{},
		downloads: &fakeDownloadRecords{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Zones(dbx.DBTX) zones.Repository             { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return nil }
func (m *fakeRepoManager) UploadRecords(dbx.DBTX) uploadrecords.Repository {
	return m.uploads
}
func (m *fakeRepoManager) DownloadRecords(dbx.DBTX) downloadrecords.Repository {
	return m.downloads
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

const testHash = "da39a3ee5e6b4b0d3255bfef95601890afd80709"

func testZone() *models.Zone {
	return &models.Zone{
		Name:        "lab",
		OwnerID:     "github|alice",
		BucketURI:   "s3://lab-bucket",
		Credentials: `{"accessKeyId":"AK","secretAccessKey":"SK"}`,
	}
}

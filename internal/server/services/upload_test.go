package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/locator"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/objectstore"
)

func newUploadFixture(t *testing.T) (*UploadService, *fakeStore, *fakeRepoManager, *fakeClock) {
	t.Helper()
	store := newFakeStore()
	repos := newFakeRepoManager()
	clock := newFakeClock()
	svc := NewUploadService(nil, repos, locator.New(store), clock)
	return svc, store, repos, clock
}

func TestInitiate_IssuesURLAndRecord(t *testing.T) {
	svc, _, repos, clock := newUploadFixture(t)
	zone := testZone()

	res, err := svc.Initiate(context.Background(), zone, "github|alice", 1000, testHash, "sha1")
	require.NoError(t, err)
	require.False(t, res.AlreadyExists)
	require.False(t, res.AlreadyPending)
	require.NotEmpty(t, res.SignedUploadURL)
	require.Equal(t, "sha1/da/39/a3/"+testHash, res.ObjectKey)

	require.Len(t, repos.uploads.records, 1)
	rec := repos.uploads.records[0]
	require.Equal(t, models.StageInitiate, rec.Stage)
	require.Equal(t, clock.Now().UnixMilli(), rec.Timestamp)
	require.Equal(t, "lab", rec.ZoneName)
	require.Equal(t, "s3://lab-bucket", rec.BucketURI)
	require.Equal(t, "github|alice", rec.UserID)
	require.Equal(t, int64(1000), rec.Size)
	require.Equal(t, res.ObjectKey, rec.ObjectKey)
}

func TestInitiate_ZoneDirectoryPrefixesKey(t *testing.T) {
	svc, _, _, _ := newUploadFixture(t)
	zone := testZone()
	zone.Directory = "proj1"

	res, err := svc.Initiate(context.Background(), zone, "github|alice", 1000, testHash, "sha1")
	require.NoError(t, err)
	require.Equal(t, "proj1/sha1/da/39/a3/"+testHash, res.ObjectKey)
}

func TestInitiate_DedupShortCircuit(t *testing.T) {
	svc, store, repos, _ := newUploadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 1000)

	// Any number of initiations for existing content return alreadyExists
	// without issuing a URL or appending a record.
	for i := 0; i < 3; i++ {
		res, err := svc.Initiate(context.Background(), zone, "github|alice", 1000, testHash, "sha1")
		require.NoError(t, err)
		require.True(t, res.AlreadyExists)
		require.Empty(t, res.SignedUploadURL)
	}
	require.Zero(t, store.signCount())
	require.Empty(t, repos.uploads.records)
}

func TestInitiate_QuotaPerZone(t *testing.T) {
	svc, _, _, _ := newUploadFixture(t)

	zone := testZone()
	_, err := svc.Initiate(context.Background(), zone, "u", zoneUploadQuota+1, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Initiate(context.Background(), zone, "u", zoneUploadQuota, testHash, "sha1")
	require.NoError(t, err)

	// The communal default zone has the tighter quota.
	def := testZone()
	def.Name = DefaultZoneName
	_, err = svc.Initiate(context.Background(), def, "u", defaultZoneUploadQuota+1, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Initiate(context.Background(), def, "u", defaultZoneUploadQuota, testHash, "sha1")
	require.NoError(t, err)

	// Quotas are decimal megabytes/gigabytes, not binary. 200 MiB is over
	// the default zone's 200 MB limit.
	_, err = svc.Initiate(context.Background(), def, "u", 200*1024*1024, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Initiate(context.Background(), def, "u", 1000*1000*200, testHash, "sha1")
	require.NoError(t, err)
	_, err = svc.Initiate(context.Background(), zone, "u", 1024*1024*1024, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Initiate(context.Background(), zone, "u", 1000*1000*1000, testHash, "sha1")
	require.NoError(t, err)
}

func TestInitiate_Validation(t *testing.T) {
	svc, store, repos, _ := newUploadFixture(t)
	zone := testZone()

	_, err := svc.Initiate(context.Background(), zone, "u", 0, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Initiate(context.Background(), zone, "u", 100, "not-a-hash", "sha1")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Initiate(context.Background(), zone, "u", 100, testHash, "sha256")
	require.ErrorIs(t, err, common.ErrValidation)

	// Uppercase hex is rejected; hashes are canonical lowercase.
	_, err = svc.Initiate(context.Background(), zone, "u", 100, "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709", "sha1")
	require.ErrorIs(t, err, common.ErrValidation)

	// No mutation happened for any rejected request.
	require.Zero(t, store.signCount())
	require.Empty(t, repos.uploads.records)
}

func TestInitiate_UnprovisionedZone(t *testing.T) {
	svc, _, _, _ := newUploadFixture(t)

	zone := testZone()
	zone.BucketURI = ""
	_, err := svc.Initiate(context.Background(), zone, "u", 100, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrConfiguration)

	zone = testZone()
	zone.Credentials = ""
	_, err = svc.Initiate(context.Background(), zone, "u", 100, testHash, "sha1")
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestFinalize_AppendsRecord(t *testing.T) {
	svc, _, repos, clock := newUploadFixture(t)
	zone := testZone()

	err := svc.Finalize(context.Background(), zone, "github|alice", 1000, testHash, "sha1", "sha1/da/39/a3/"+testHash)
	require.NoError(t, err)

	require.Len(t, repos.uploads.records, 1)
	rec := repos.uploads.records[0]
	require.Equal(t, models.StageFinalize, rec.Stage)
	require.Equal(t, clock.Now().UnixMilli(), rec.Timestamp)
	require.Equal(t, "sha1/da/39/a3/"+testHash, rec.ObjectKey)
}

func TestFinalize_DerivesKeyWhenOmitted(t *testing.T) {
	svc, _, repos, _ := newUploadFixture(t)

	err := svc.Finalize(context.Background(), testZone(), "u", 1000, testHash, "sha1", "")
	require.NoError(t, err)
	require.Equal(t, "sha1/da/39/a3/"+testHash, repos.uploads.records[0].ObjectKey)
}

func TestFinalize_Validation(t *testing.T) {
	svc, _, repos, _ := newUploadFixture(t)

	zone := testZone()
	zone.BucketURI = ""
	err := svc.Finalize(context.Background(), zone, "u", 100, testHash, "sha1", "")
	require.ErrorIs(t, err, common.ErrConfiguration)

	err = svc.Finalize(context.Background(), testZone(), "u", 100, "zzz", "sha1", "")
	require.ErrorIs(t, err, common.ErrValidation)

	require.Empty(t, repos.uploads.records)
}

var _ objectstore.Store = (*fakeStore)(nil)

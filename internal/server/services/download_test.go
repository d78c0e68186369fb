package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/server/locator"
	"github.com/kachery/gateway/internal/server/models"
)

func newDownloadFixture(t *testing.T) (*DownloadService, *fakeStore, *fakeRepoManager, *fakeClock) {
	t.Helper()
	store := newFakeStore()
	repos := newFakeRepoManager()
	clock := newFakeClock()
	svc := NewDownloadService(nil, repos, locator.New(store), clock)
	return svc, store, repos, clock
}

func TestFindFile_NotFound(t *testing.T) {
	svc, _, repos, _ := newDownloadFixture(t)

	res, err := svc.FindFile(context.Background(), testZone(), "u", testHash, "sha1")
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Empty(t, repos.downloads.records, "a miss must not leave a record")
}

func TestFindFile_ColdPath(t *testing.T) {
	svc, store, repos, clock := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	res, err := svc.FindFile(context.Background(), zone, "github|bob", testHash, "sha1")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.False(t, res.CacheHit)
	require.NotEmpty(t, res.URL)
	require.Equal(t, int64(2048), res.Size)
	require.Equal(t, "s3://lab-bucket", res.BucketURI)
	require.Equal(t, "sha1/da/39/a3/"+testHash, res.ObjectKey)

	require.Len(t, repos.downloads.records, 1)
	rec := repos.downloads.records[0]
	require.Equal(t, res.URL, rec.DownloadURL)
	require.Equal(t, "github|bob", rec.UserID)
	require.Equal(t, clock.Now().UnixMilli(), rec.Timestamp)
}

func TestFindFile_CacheTierReusesURL(t *testing.T) {
	svc, store, repos, _ := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	first, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	signed := store.signCount()

	second, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.URL, second.URL)
	require.Equal(t, first.Size, second.Size)
	require.Equal(t, signed, store.signCount(), "no new URL may be signed within the reuse window")
	require.Len(t, repos.downloads.records, 1, "cache hits append no records")
}

func TestFindFile_RecordTierReusesURL(t *testing.T) {
	svc, store, repos, clock := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	// A record left by another process instance five minutes ago.
	repos.downloads.records = append(repos.downloads.records, &models.DownloadRecord{
		Timestamp:   clock.Now().Add(-5 * time.Minute).UnixMilli(),
		ZoneName:    zone.Name,
		BucketURI:   zone.BucketURI,
		Size:        2048,
		Hash:        testHash,
		HashAlg:     "sha1",
		ObjectKey:   "sha1/da/39/a3/" + testHash,
		DownloadURL: "https://signed.example/get/prior",
	})

	res, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.True(t, res.CacheHit)
	require.Equal(t, "https://signed.example/get/prior", res.URL)
	require.Zero(t, store.signCount())
}

func TestFindFile_StaleRecordIgnored(t *testing.T) {
	svc, store, repos, clock := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	repos.downloads.records = append(repos.downloads.records, &models.DownloadRecord{
		Timestamp:   clock.Now().Add(-11 * time.Minute).UnixMilli(),
		ZoneName:    zone.Name,
		Hash:        testHash,
		HashAlg:     "sha1",
		DownloadURL: "https://signed.example/get/stale",
	})

	res, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	require.False(t, res.CacheHit)
	require.NotEqual(t, "https://signed.example/get/stale", res.URL)
}

func TestFindFile_CacheExpiresAfterReuseWindow(t *testing.T) {
	svc, store, _, clock := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	first, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)

	clock.Advance(urlReuseWindow + time.Second)

	second, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	require.False(t, second.CacheHit)
	require.NotEqual(t, first.URL, second.URL)
}

func TestFindFile_Validation(t *testing.T) {
	svc, _, _, _ := newDownloadFixture(t)

	_, err := svc.FindFile(context.Background(), testZone(), "u", "bogus", "sha1")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.FindFile(context.Background(), testZone(), "u", testHash, "md5")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestFindFile_UnprovisionedZone(t *testing.T) {
	svc, _, _, _ := newDownloadFixture(t)
	zone := testZone()
	zone.BucketURI = ""

	_, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.ErrorIs(t, err, common.ErrConfiguration)
}

func TestFindFile_ClearedBucketURIStopsCachedURLs(t *testing.T) {
	svc, store, repos, clock := newDownloadFixture(t)
	zone := testZone()
	store.put("sha1/da/39/a3/"+testHash, 2048)

	// Warm the in-process cache and leave a recent record behind.
	_, err := svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.NoError(t, err)
	repos.downloads.records = append(repos.downloads.records, &models.DownloadRecord{
		Timestamp:   clock.Now().UnixMilli(),
		ZoneName:    zone.Name,
		Hash:        testHash,
		HashAlg:     "sha1",
		DownloadURL: "https://signed.example/get/prior",
	})

	zone.BucketURI = ""

	// Neither cache tier may serve once the zone loses its backing store.
	_, err = svc.FindFile(context.Background(), zone, "u", testHash, "sha1")
	require.ErrorIs(t, err, common.ErrConfiguration)
}

// Round trip across both services: initiate issues an upload URL while the
// object is absent, find reports not-found until the object lands, then
// resolves and serves the identical URL from cache within the reuse window.
func TestUploadDownloadRoundTrip(t *testing.T) {
	store := newFakeStore()
	repos := newFakeRepoManager()
	clock := newFakeClock()
	loc := locator.New(store)
	up := NewUploadService(nil, repos, loc, clock)
	down := NewDownloadService(nil, repos, loc, clock)

	scratch := testZone()
	scratch.Name = "scratch"
	scratch.AnonymousUpload = true

	ini, err := up.Initiate(context.Background(), scratch, "", 1000, testHash, "sha1")
	require.NoError(t, err)
	require.False(t, ini.AlreadyExists)
	require.NotEmpty(t, ini.SignedUploadURL)

	res, err := down.FindFile(context.Background(), scratch, "", testHash, "sha1")
	require.NoError(t, err)
	require.False(t, res.Found)

	// The client uploads and the object lands in the store.
	store.put(ini.ObjectKey, 1000)
	require.NoError(t, up.Finalize(context.Background(), scratch, "", 1000, testHash, "sha1", ini.ObjectKey))

	res, err = down.FindFile(context.Background(), scratch, "", testHash, "sha1")
	require.NoError(t, err)
	require.True(t, res.Found)
	require.NotEmpty(t, res.URL)

	again, err := down.FindFile(context.Background(), scratch, "", testHash, "sha1")
	require.NoError(t, err)
	require.True(t, again.CacheHit)
	require.Equal(t, res.URL, again.URL)
}

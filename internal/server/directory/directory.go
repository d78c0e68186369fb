// Package directory owns zone and user records and every authorization
// decision made about them. Reads go through process-local TTL caches;
// writes synchronously invalidate matching entries before they are
// acknowledged, so staleness is bounded by in-flight reads, not by the TTL.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kachery/gateway/internal/cachex"
	"github.com/kachery/gateway/internal/common"
	"github.com/kachery/gateway/internal/dbx"
	"github.com/kachery/gateway/internal/server/models"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
)

// Cache lifetimes. The API-key cache is deliberately short: a regenerated
// key must stop working almost immediately.
const (
	zoneCacheTTL   = time.Minute
	userCacheTTL   = time.Minute
	apiKeyCacheTTL = time.Second
)

// DefaultScratchZone is the distinguished zone that accepts anonymous
// uploads.
const DefaultScratchZone = "scratch"

// Options configures a Directory.
type Options struct {
	// ScratchZone names the zone whose AnonymousUpload attribute is set on
	// load. Empty selects DefaultScratchZone.
	ScratchZone string
	// AdminUserIDs lists site administrators.
	AdminUserIDs []string
	// Clock drives cache expiry; nil selects the real clock.
	Clock cachex.Clock
}

// Directory is the multi-tenant identity and policy store.
type Directory struct {
	db          *sql.DB
	repos       repomanager.RepositoryManager
	scratchZone string
	admins      map[string]struct{}

	zoneCache   *cachex.Cache[string, *models.Zone]
	userCache   *cachex.Cache[string, *models.User]
	apiKeyCache *cachex.Cache[string, *models.User]
}

func New(db *sql.DB, repos repomanager.RepositoryManager, opts Options) *Directory {
	if opts.ScratchZone == "" {
		opts.ScratchZone = DefaultScratchZone
	}
	if opts.Clock == nil {
		opts.Clock = cachex.RealClock()
	}
	admins := make(map[string]struct{}, len(opts.AdminUserIDs))
	for _, id := range opts.AdminUserIDs {
		admins[id] = struct{}{}
	}
	return &Directory{
		db:          db,
		repos:       repos,
		scratchZone: opts.ScratchZone,
		admins:      admins,
		zoneCache:   cachex.New[string, *models.Zone](zoneCacheTTL, opts.Clock),
		userCache:   cachex.New[string, *models.User](userCacheTTL, opts.Clock),
		apiKeyCache: cachex.New[string, *models.User](apiKeyCacheTTL, opts.Clock),
	}
}

// IsSiteAdmin reports whether userID is a configured site administrator.
func (d *Directory) IsSiteAdmin(userID string) bool {
	_, ok := d.admins[userID]
	return ok
}

// cloneZone returns a copy safe to hand to callers; cached values are never
// exposed directly.
func cloneZone(z *models.Zone) *models.Zone {
	c := *z
	c.Members = append([]models.ZoneMember(nil), z.Members...)
	return &c
}

// GetZone returns the zone by name. Credentials are replaced with the
// redaction marker unless includeCredentials is set; callers must only set
// it after an authorization check.
func (d *Directory) GetZone(ctx context.Context, name string, includeCredentials bool) (*models.Zone, error) {
	z, ok := d.zoneCache.Get(name)
	if !ok {
		var err error
		z, err = d.repos.Zones(d.db).Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := z.Validate(); err != nil {
			return nil, err
		}
		z.AnonymousUpload = z.Name == d.scratchZone
		d.zoneCache.Set(name, z)
	}

	out := cloneZone(z)
	if !includeCredentials {
		redactZone(out)
	}
	return out, nil
}

func redactZone(z *models.Zone) {
	if z.Credentials != "" {
		z.Credentials = models.RedactedCredentials
	}
}

// GetZonesForUser returns the zones owned by userID, credentials redacted.
func (d *Directory) GetZonesForUser(ctx context.Context, userID string) ([]*models.Zone, error) {
	zs, err := d.repos.Zones(d.db).GetForOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.prepareZones(zs)
}

// GetAllZones returns every zone, credentials redacted.
func (d *Directory) GetAllZones(ctx context.Context) ([]*models.Zone, error) {
	zs, err := d.repos.Zones(d.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return d.prepareZones(zs)
}

func (d *Directory) prepareZones(zs []*models.Zone) ([]*models.Zone, error) {
	for _, z := range zs {
		if err := z.Validate(); err != nil {
			return nil, err
		}
		z.AnonymousUpload = z.Name == d.scratchZone
		redactZone(z)
	}
	return zs, nil
}

// CreateZone inserts the zone if absent. Creation is idempotent: racing
// creators cannot clobber each other.
func (d *Directory) CreateZone(ctx context.Context, zone *models.Zone) error {
	if zone.Name == "" || zone.OwnerID == "" {
		return errors.Join(common.ErrValidation, errors.New("zone needs a name and an owner"))
	}
	if err := d.repos.Zones(d.db).Upsert(ctx, zone); err != nil {
		return err
	}
	d.zoneCache.Delete(zone.Name)
	return nil
}

// UpdateZone applies a partial update and invalidates the cached zone before
// returning.
func (d *Directory) UpdateZone(ctx context.Context, name string, update models.ZoneUpdate) error {
	err := d.repos.Zones(d.db).Update(ctx, name, update)
	d.zoneCache.Delete(name)
	return err
}

// DeleteZone removes the zone and invalidates its cache entry.
func (d *Directory) DeleteZone(ctx context.Context, name string) error {
	err := d.repos.Zones(d.db).Delete(ctx, name)
	d.zoneCache.Delete(name)
	return err
}

// GetUser returns the user by id.
func (d *Directory) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d.userCache.Get(id); ok {
		out := *u
		return &out, nil
	}
	u, err := d.repos.Users(d.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	d.userCache.Set(id, u)
	out := *u
	return &out, nil
}

// GetUserByAPIKey returns the user holding the API credential. The cache TTL
// is one second so a regenerated key stops resolving almost immediately even
// without explicit invalidation.
func (d *Directory) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, common.ErrNotFound
	}
	if u, ok := d.apiKeyCache.Get(apiKey); ok {
		out := *u
		return &out, nil
	}
	u, err := d.repos.Users(d.db).GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	d.apiKeyCache.Set(apiKey, u)
	out := *u
	return &out, nil
}

// GetAllUsers returns every user.
func (d *Directory) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	us, err := d.repos.Users(d.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range us {
		if err := u.Validate(); err != nil {
			return nil, err
		}
	}
	return us, nil
}

// CreateUser inserts the user if absent.
func (d *Directory) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.Join(common.ErrValidation, errors.New("user needs an id"))
	}
	if err := d.repos.Users(d.db).Upsert(ctx, user); err != nil {
		return err
	}
	d.invalidateUser(user.ID)
	return nil
}

// UpdateUser applies a partial update and invalidates the cached user before
// returning.
func (d *Directory) UpdateUser(ctx context.Context, id string, update models.UserUpdate) error {
	err := d.repos.Users(d.db).Update(ctx, id, update)
	d.invalidateUser(id)
	return err
}

// ResetAPIKey issues a fresh API credential for the user, creating the user
// record if absent. The previous credential is invalidated for all purposes,
// including cached lookups keyed by it.
func (d *Directory) ResetAPIKey(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errors.Join(common.ErrValidation, errors.New("user needs an id"))
	}
	apiKey, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	err = dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := d.repos.Users(tx)
		if _, err := repo.Get(ctx, id); err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if err := repo.Upsert(ctx, &models.User{ID: id}); err != nil {
				return err
			}
		}
		return repo.Update(ctx, id, models.UserUpdate{APIKey: models.Set(apiKey)})
	})
	if err != nil {
		return "", err
	}
	d.invalidateUser(id)
	return apiKey, nil
}

// invalidateUser drops the user from the by-id cache and every by-key cache
// entry that resolves to them.
func (d *Directory) invalidateUser(id string) {
	d.userCache.Delete(id)
	d.apiKeyCache.DeleteFunc(func(_ string, u *models.User) bool {
		return u.ID == id
	})
}

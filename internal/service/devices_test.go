package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/geocoder89/devicehub/internal/auth"
	"github.com/geocoder89/devicehub/internal/domain/device"
	"github.com/geocoder89/devicehub/internal/repo/memory"
	"github.com/geocoder89/devicehub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingIssuer mints tokens and only verifies the ones it minted, so
// tests can plant foreign values in the cache.
type countingIssuer struct {
	mints  int
	fail   bool
	minted map[string]string
}

func (c *countingIssuer) GenerateDeviceToken(deviceID string) (string, error) {
	c.mints++
	if c.fail {
		return "", errors.New("signing failed")
	}
	tok := fmt.Sprintf("token-%s-%d", deviceID, c.mints)
	if c.minted == nil {
		c.minted = make(map[string]string)
	}
	c.minted[tok] = deviceID
	return tok, nil
}

func (c *countingIssuer) VerifyDeviceToken(token string) (*auth.DeviceClaims, error) {
	deviceID, ok := c.minted[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &auth.DeviceClaims{DeviceID: deviceID, TokenType: "device"}, nil
}

type mapCache struct {
	m        map[string]string
	failSets bool
}

func newMapCache() *mapCache {
	return &mapCache{m: make(map[string]string)}
}

func (c *mapCache) Get(ctx context.Context, deviceID string) (string, bool) {
	v, ok := c.m[deviceID]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, deviceID, token string) error {
	if c.failSets {
		return errors.New("cache unavailable")
	}
	c.m[deviceID] = token
	return nil
}

func (c *mapCache) Delete(ctx context.Context, deviceID string) error {
	delete(c.m, deviceID)
	return nil
}

func newDeviceService(repo service.DeviceRepo, issuer service.DeviceCredentials, cache service.DeviceTokenCache) *service.DeviceService {
	return service.NewDeviceService(repo, issuer, cache, nil)
}

func seedDevices(t *testing.T, repo *memory.DevicesRepo, n int) []device.Device {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]device.Device, 0, n)
	for i := 0; i < n; i++ {
		d, err := repo.Create(ctx, device.Device{
			ID:          fmt.Sprintf("d%03d", i),
			BuildingID:  "B1",
			RoomID:      fmt.Sprintf("R%d", i),
			OwnerUserID: "u1",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestDeviceServiceCreate(t *testing.T) {
	repo := memory.NewDevicesRepo()
	svc := newDeviceService(repo, &countingIssuer{}, newMapCache())

	d, err := svc.Create(context.Background(), device.CreateDeviceRequest{
		BuildingID: "B7",
		RoomID:     "R7",
	}, "owner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "B7", d.BuildingID)
	assert.Equal(t, "R7", d.RoomID)
	assert.Equal(t, "owner-1", d.OwnerUserID)
	assert.False(t, d.CreatedAt.IsZero())

	stored, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d, stored)
}

func TestDeviceServicePartialUpdate(t *testing.T) {
	repo := memory.NewDevicesRepo()
	svc := newDeviceService(repo, &countingIssuer{}, newMapCache())

	seedDevices(t, repo, 1)

	room := "R-new"
	updated, err := svc.Update(context.Background(), "d000", device.UpdateDeviceRequest{
		RoomID: &room,
	})
	require.NoError(t, err)

	assert.Equal(t, "R-new", updated.RoomID)
	// the untouched field keeps its stored value
	assert.Equal(t, "B1", updated.BuildingID)
}

func TestDeviceServiceUpdateUnknownID(t *testing.T) {
	repo := memory.NewDevicesRepo()
	svc := newDeviceService(repo, &countingIssuer{}, newMapCache())

	_, err := svc.Update(context.Background(), "missing", device.UpdateDeviceRequest{})
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestDeviceServiceListPagination(t *testing.T) {
	repo := memory.NewDevicesRepo()
	svc := newDeviceService(repo, &countingIssuer{}, newMapCache())

	seedDevices(t, repo, 25)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantItems int
	}{
		{name: "first_page_full", page: 1, wantPage: 1, wantItems: service.DefaultPageSize},
		{name: "last_page_partial", page: 3, wantPage: 3, wantItems: 5},
		{name: "beyond_last_page_empty", page: 9, wantPage: 9, wantItems: 0},
		{name: "page_below_one_clamped", page: 0, wantPage: 1, wantItems: service.DefaultPageSize},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.List(context.Background(), tt.page)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPage, p.Page)
			assert.Len(t, p.List, tt.wantItems)
			assert.Equal(t, 25, p.TotalCount)
			assert.Equal(t, 3, p.TotalPages)
		})
	}
}

func TestDeviceServiceListEmpty(t *testing.T) {
	svc := newDeviceService(memory.NewDevicesRepo(), &countingIssuer{}, newMapCache())

	p, err := svc.List(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, p.List)
	assert.Equal(t, 0, p.TotalCount)
	// an empty listing still renders as page 1 of 1
	assert.Equal(t, 1, p.TotalPages)
}

func TestDeviceServiceGetDeviceToken(t *testing.T) {
	t.Run("mints_once_then_serves_from_cache", func(t *testing.T) {
		repo := memory.NewDevicesRepo()
		issuer := &countingIssuer{}
		svc := newDeviceService(repo, issuer, newMapCache())

		seedDevices(t, repo, 1)

		first, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)
		assert.NotEmpty(t, first)

		second, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, issuer.mints)
	})

	t.Run("unknown_device", func(t *testing.T) {
		issuer := &countingIssuer{}
		svc := newDeviceService(memory.NewDevicesRepo(), issuer, newMapCache())

		_, err := svc.GetDeviceToken(context.Background(), "missing")
		assert.ErrorIs(t, err, device.ErrNotFound)
		assert.Zero(t, issuer.mints)
	})

	t.Run("cache_write_failure_still_returns_token", func(t *testing.T) {
		repo := memory.NewDevicesRepo()
		issuer := &countingIssuer{}
		cache := newMapCache()
		cache.failSets = true
		svc := newDeviceService(repo, issuer, cache)

		seedDevices(t, repo, 1)

		token, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		// every call re-mints while the cache is down
		_, err = svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)
		assert.Equal(t, 2, issuer.mints)
	})

	t.Run("delete_drops_cached_token", func(t *testing.T) {
		repo := memory.NewDevicesRepo()
		issuer := &countingIssuer{}
		cache := newMapCache()
		svc := newDeviceService(repo, issuer, cache)

		seedDevices(t, repo, 1)

		stale, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), "d000"))

		if _, ok := cache.Get(context.Background(), "d000"); ok {
			t.Fatalf("cache still serves a token for the deleted device")
		}

		// a device recreated under the same id gets a fresh credential
		_, err = repo.Create(context.Background(), device.Device{
			ID: "d000", BuildingID: "B1", RoomID: "R1", OwnerUserID: "u1",
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		fresh, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)
		assert.NotEqual(t, stale, fresh)
		assert.Equal(t, 2, issuer.mints)
	})

	t.Run("unverifiable_cache_entry_is_replaced", func(t *testing.T) {
		repo := memory.NewDevicesRepo()
		issuer := &countingIssuer{}
		cache := newMapCache()
		svc := newDeviceService(repo, issuer, cache)

		seedDevices(t, repo, 1)
		cache.m["d000"] = "not-a-credential"

		token, err := svc.GetDeviceToken(context.Background(), "d000")
		require.NoError(t, err)

		assert.NotEqual(t, "not-a-credential", token)
		assert.Equal(t, 1, issuer.mints)

		cached, ok := cache.Get(context.Background(), "d000")
		require.True(t, ok)
		assert.Equal(t, token, cached)
	})

	t.Run("issuer_failure", func(t *testing.T) {
		repo := memory.NewDevicesRepo()
		svc := newDeviceService(repo, &countingIssuer{fail: true}, newMapCache())

		seedDevices(t, repo, 1)

		_, err := svc.GetDeviceToken(context.Background(), "d000")
		assert.Error(t, err)
	})
}

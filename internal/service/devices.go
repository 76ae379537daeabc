package service

import (
	"context"

	"github.com/geocoder89/devicehub/internal/auth"
	"github.com/geocoder89/devicehub/internal/domain/device"
	"github.com/geocoder89/devicehub/internal/observability"
)

// DefaultPageSize matches the listing pages in the UI.
const DefaultPageSize = 10

type DeviceRepo interface {
	Create(ctx context.Context, d device.Device) (device.Device, error)
	GetByID(ctx context.Context, id string) (device.Device, error)
	List(ctx context.Context, limit, offset int) ([]device.Device, int, error)
	Update(ctx context.Context, id string, req device.UpdateDeviceRequest) (device.Device, error)
	Delete(ctx context.Context, id string) error
}

// DeviceCredentials mints and checks the signed per-device credential.
type DeviceCredentials interface {
	GenerateDeviceToken(deviceID string) (string, error)
	VerifyDeviceToken(token string) (*auth.DeviceClaims, error)
}

type DeviceTokenCache interface {
	Get(ctx context.Context, deviceID string) (string, bool)
	Set(ctx context.Context, deviceID, token string) error
	Delete(ctx context.Context, deviceID string) error
}

type DeviceService struct {
	repo   DeviceRepo
	tokens DeviceCredentials
	cache  DeviceTokenCache
	prom   *observability.Prom
}

func NewDeviceService(repo DeviceRepo, tokens DeviceCredentials, cache DeviceTokenCache, prom *observability.Prom) *DeviceService {
	return &DeviceService{
		repo:   repo,
		tokens: tokens,
		cache:  cache,
		prom:   prom,
	}
}

func (s *DeviceService) List(ctx context.Context, page int) (device.Page, error) {
	page = clampPage(page)

	offset := (page - 1) * DefaultPageSize

	items, total, err := s.repo.List(ctx, DefaultPageSize, offset)

	if err != nil {
		return device.Page{}, err
	}

	return device.Page{
		List:       items,
		Page:       page,
		TotalPages: totalPages(total, DefaultPageSize),
		TotalCount: total,
	}, nil
}

func (s *DeviceService) GetByID(ctx context.Context, id string) (device.Device, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DeviceService) Create(ctx context.Context, req device.CreateDeviceRequest, ownerUserID string) (device.Device, error) {
	d := device.NewFromCreateRequest(req, ownerUserID)

	return s.repo.Create(ctx, d)
}

func (s *DeviceService) Update(ctx context.Context, id string, req device.UpdateDeviceRequest) (device.Device, error) {
	return s.repo.Update(ctx, id, req)
}

// Delete removes the device and drops its cached credential so a reused
// id never gets served a dead device's token.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// best effort: a failed drop just means the entry ages out via TTL
	_ = s.cache.Delete(ctx, id)

	return nil
}

// GetDeviceToken returns the cached credential for a device, minting and
// caching a fresh one on a miss. The device must exist.
func (s *DeviceService) GetDeviceToken(ctx context.Context, id string) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	if token, ok := s.cache.Get(ctx, id); ok {
		// the cached credential must still verify; a stale or tampered
		// entry is treated as a miss and replaced
		if _, err := s.tokens.VerifyDeviceToken(token); err == nil {
			if s.prom != nil {
				s.prom.TokenCacheHits.Inc()
			}
			return token, nil
		}

		_ = s.cache.Delete(ctx, id)
	}

	if s.prom != nil {
		s.prom.TokenCacheMisses.Inc()
	}

	token, err := s.tokens.GenerateDeviceToken(id)

	if err != nil {
		return "", err
	}

	// a failed cache write only costs a re-mint on the next call
	_ = s.cache.Set(ctx, id, token)

	return token, nil
}

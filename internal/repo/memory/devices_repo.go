package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/devicehub/internal/domain/device"
)

// DevicesRepo is an in-memory stand-in for the postgres repo. Handy for
// local development without a database and for service-level tests.
type DevicesRepo struct {
	mu      sync.RWMutex
	devices map[string]device.Device
}

func NewDevicesRepo() *DevicesRepo {
	return &DevicesRepo{
		devices: make(map[string]device.Device),
	}
}

func (r *DevicesRepo) Create(ctx context.Context, d device.Device) (device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices[d.ID] = d
	return d, nil
}

func (r *DevicesRepo) GetByID(ctx context.Context, id string) (device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	return d, nil
}

func (r *DevicesRepo) List(ctx context.Context, limit, offset int) ([]device.Device, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]device.Device, 0, len(r.devices))
	for _, d := range r.devices {
		all = append(all, d)
	}

	// stable ordering to mirror the SQL ORDER BY
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)

	if offset >= total {
		return []device.Device{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *DevicesRepo) Update(ctx context.Context, id string, req device.UpdateDeviceRequest) (device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return device.Device{}, device.ErrNotFound
	}

	if req.BuildingID != nil {
		d.BuildingID = *req.BuildingID
	}
	if req.RoomID != nil {
		d.RoomID = *req.RoomID
	}

	r.devices[id] = d
	return d, nil
}

func (r *DevicesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return device.ErrNotFound
	}

	delete(r.devices, id)
	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/devicehub/internal/domain/device"
	"github.com/geocoder89/devicehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DevicesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDevicesRepo(pool *pgxpool.Pool, prom *observability.Prom) *DevicesRepo {
	return &DevicesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *DevicesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *DevicesRepo) Create(ctx context.Context, d device.Device) (device.Device, error) {
	err := r.observe("devices.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO devices (id, building_id, room_id, owner_user_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			d.ID, d.BuildingID, d.RoomID, d.OwnerUserID, d.CreatedAt, d.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return device.Device{}, err
	}

	return d, nil
}

func (r *DevicesRepo) GetByID(ctx context.Context, id string) (device.Device, error) {
	var d device.Device

	err := r.observe("devices.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, building_id, room_id, owner_user_id, created_at, updated_at
			 FROM devices
			 WHERE id = $1`,
			id,
		).Scan(&d.ID, &d.BuildingID, &d.RoomID, &d.OwnerUserID, &d.CreatedAt, &d.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

func (r *DevicesRepo) List(ctx context.Context, limit, offset int) ([]device.Device, int, error) {
	var output []device.Device
	total := 0

	err := r.observe("devices.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, building_id, room_id, owner_user_id, created_at, updated_at,
				COUNT(*) OVER() AS total
			 FROM devices
			 ORDER BY created_at ASC, id ASC
			 LIMIT $1 OFFSET $2`,
			limit, offset,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]device.Device, 0, limit)

		for rows.Next() {
			var d device.Device
			var t int

			err = rows.Scan(&d.ID, &d.BuildingID, &d.RoomID, &d.OwnerUserID, &d.CreatedAt, &d.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			output = append(output, d)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// Update writes only the fields present in the request; nil pointers keep
// the stored value (COALESCE against the existing row).
func (r *DevicesRepo) Update(ctx context.Context, id string, req device.UpdateDeviceRequest) (device.Device, error) {
	var d device.Device

	err := r.observe("devices.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE devices
				SET building_id = COALESCE($2, building_id),
						room_id = COALESCE($3, room_id),
						updated_at = NOW()
			WHERE id = $1
			RETURNING id, building_id, room_id, owner_user_id, created_at, updated_at`,
			id,
			req.BuildingID,
			req.RoomID,
		).Scan(&d.ID, &d.BuildingID, &d.RoomID, &d.OwnerUserID, &d.CreatedAt, &d.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return device.Device{}, device.ErrNotFound
		}

		return device.Device{}, err
	}

	return d, nil
}

func (r *DevicesRepo) Delete(ctx context.Context, id string) error {
	return r.observe("devices.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return device.ErrNotFound
		}

		return nil
	})
}

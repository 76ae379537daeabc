package device

import (
	"errors"
	"time"
)

type Device struct {
	ID          string    `json:"id"`
	BuildingID  string    `json:"buildingId"`
	RoomID      string    `json:"roomId"`
	OwnerUserID string    `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("device not found")

type CreateDeviceRequest struct {
	BuildingID string `json:"buildingId" binding:"required,min=1,max=255"`
	RoomID     string `json:"roomId" binding:"required,min=1,max=255"`
}

// with pointers if optional, nil means "leave the stored value alone"
type UpdateDeviceRequest struct {
	BuildingID *string `json:"buildingId" binding:"omitempty,min=1,max=255"`
	RoomID     *string `json:"roomId" binding:"omitempty,min=1,max=255"`
}

// Page is one page of the devices listing.
type Page struct {
	List       []Device `json:"list"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	TotalCount int      `json:"totalCount"`
}

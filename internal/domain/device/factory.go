package device

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateDeviceRequest, ownerUserID string) Device {
	now := time.Now().UTC()

	return Device{
		ID:          uuid.NewString(),
		BuildingID:  req.BuildingID,
		RoomID:      req.RoomID,
		OwnerUserID: ownerUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

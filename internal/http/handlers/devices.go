package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/geocoder89/devicehub/internal/domain/device"
	"github.com/geocoder89/devicehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// DeviceService is the facade the router binds each device operation to.
type DeviceService interface {
	List(ctx context.Context, page int) (device.Page, error)
	GetByID(ctx context.Context, id string) (device.Device, error)
	Create(ctx context.Context, req device.CreateDeviceRequest, ownerUserID string) (device.Device, error)
	Update(ctx context.Context, id string, req device.UpdateDeviceRequest) (device.Device, error)
	Delete(ctx context.Context, id string) error
	GetDeviceToken(ctx context.Context, id string) (string, error)
}

type DevicesHandler struct {
	svc DeviceService
}

func NewDevicesHandler(svc DeviceService) *DevicesHandler {
	return &DevicesHandler{svc: svc}
}

func pageParam(ctx *gin.Context) int {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	if err != nil || page < 1 {
		return 1
	}

	return page
}

func (h *DevicesHandler) ListDevices(ctx *gin.Context) {
	page, err := h.svc.List(ctx.Request.Context(), pageParam(ctx))

	if err != nil {
		RespondInternal(ctx, "Error fetching devices")
		return
	}

	ctx.JSON(http.StatusOK, page)
}

func (h *DevicesHandler) GetDeviceById(ctx *gin.Context) {
	id := ctx.Param("id")

	d, err := h.svc.GetByID(ctx.Request.Context(), id)

	if err != nil {
		// only a missing row is a 404; anything else is a service failure
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No device with id '%s'", id))
			return
		}
		RespondInternal(ctx, "Error fetching device")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *DevicesHandler) CreateDevice(ctx *gin.Context) {
	var req device.CreateDeviceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || ownerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	d, err := h.svc.Create(ctx.Request.Context(), req, ownerID)

	if err != nil {
		RespondInternal(ctx, "Error adding device")
		return
	}

	ctx.JSON(http.StatusCreated, d)
}

func (h *DevicesHandler) UpdateDevice(ctx *gin.Context) {
	id := ctx.Param("id")

	var req device.UpdateDeviceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	d, err := h.svc.Update(ctx.Request.Context(), id, req)

	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No device with id '%s'", id))
			return
		}
		RespondInternal(ctx, fmt.Sprintf("Error updating device with id '%s'", id))
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *DevicesHandler) DeleteDevice(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.svc.Delete(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No device with id '%s'", id))
			return
		}
		RespondInternal(ctx, fmt.Sprintf("Error deleting device with id '%s'", id))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *DevicesHandler) GetDeviceToken(ctx *gin.Context) {
	id := ctx.Param("id")

	token, err := h.svc.GetDeviceToken(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No device with id '%s'", id))
			return
		}
		RespondInternal(ctx, "Error fetching device token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deviceToken": token,
	})
}

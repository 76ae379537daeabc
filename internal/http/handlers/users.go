package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/devicehub/internal/domain/user"
	"github.com/geocoder89/devicehub/internal/http/middlewares"
	"github.com/geocoder89/devicehub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

// UserService is the facade the router binds each user operation to.
type UserService interface {
	Add(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, page int) (user.Page, error)
	Delete(ctx context.Context, targetID, callerID string) error
}

type UsersHandler struct {
	svc           UserService
	secureCookies bool
}

func NewUsersHandler(svc UserService, secureCookies bool) *UsersHandler {
	return &UsersHandler{svc: svc, secureCookies: secureCookies}
}

// AddUser is the public registration endpoint.
func (h *UsersHandler) AddUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.svc.Add(ctx.Request.Context(), req)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Error adding user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) GetUserById(ctx *gin.Context) {
	id := ctx.Param("id")

	u, err := h.svc.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No user with id '%s'", id))
			return
		}
		RespondInternal(ctx, "Error fetching user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	page, err := h.svc.List(ctx.Request.Context(), pageParam(ctx))

	if err != nil {
		RespondInternal(ctx, "Error fetching users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"list":       page.List,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"totalCount": page.TotalCount,
		"caption":    user.Caption(page.TotalCount),
	})
}

// DeleteUser removes a user. Deleting your own account additionally tears
// the current session down and initiates a fresh sign-in; the response
// tells the client to re-authenticate.
func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	err := h.svc.Delete(ctx.Request.Context(), id, callerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("No user with id '%s'", id))
			return
		}
		RespondInternal(ctx, fmt.Sprintf("Error deleting user with id '%s'", id))
		return
	}

	if id == callerID {
		clearRefreshCookie(ctx, h.secureCookies)
		ctx.JSON(http.StatusOK, gin.H{
			"reauthRequired": true,
		})
		return
	}

	ctx.Status(http.StatusNoContent)
}

package service

import (
	"context"

	"github.com/geocoder89/devicehub/internal/domain/user"
	"github.com/geocoder89/devicehub/internal/security"
)

type UserRepo interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	Delete(ctx context.Context, id string) error
}

// Reauthenticator owns the session side effects of a self-delete: the
// current session is torn down first, then a new sign-in is initiated.
type Reauthenticator interface {
	SignOut(ctx context.Context, userID string) error
	SignIn(ctx context.Context, userID string) error
}

type UserService struct {
	repo   UserRepo
	reauth Reauthenticator
}

func NewUserService(repo UserRepo, reauth Reauthenticator) *UserService {
	return &UserService{
		repo:   repo,
		reauth: reauth,
	}
}

func (s *UserService) Add(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, err
	}

	return s.repo.Create(ctx, req.Email, hash, req.Name)
}

func (s *UserService) GetByID(ctx context.Context, id string) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page int) (user.Page, error) {
	page = clampPage(page)

	offset := (page - 1) * DefaultPageSize

	items, total, err := s.repo.List(ctx, DefaultPageSize, offset)

	if err != nil {
		return user.Page{}, err
	}

	return user.Page{
		List:       items,
		Page:       page,
		TotalPages: totalPages(total, DefaultPageSize),
		TotalCount: total,
	}, nil
}

// Delete removes the user. When a user deletes their own account the
// ordering is fixed: delete, then sign-out, then a sign-in attempt.
// Sign-in is skipped when sign-out fails, and the delete is never rolled
// back by a later failure.
func (s *UserService) Delete(ctx context.Context, targetID, callerID string) error {
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}

	if targetID != callerID {
		return nil
	}

	if err := s.reauth.SignOut(ctx, callerID); err != nil {
		return err
	}

	return s.reauth.SignIn(ctx, callerID)
}

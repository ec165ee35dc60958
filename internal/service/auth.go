package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mvaleed/carfleet/internal/auth"
	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/event"
)

// AuthService handles authentication operations.
type AuthService struct {
	users     *Foundation[domain.User]
	hasher    *auth.PasswordHasher
	jwt       *auth.JWTManager
	publisher event.Publisher
	logger    *slog.Logger
}

func NewAuthService(
	users *Foundation[domain.User],
	hasher *auth.PasswordHasher,
	jwt *auth.JWTManager,
	publisher event.Publisher,
	logger *slog.Logger,
) *AuthService {
	if publisher == nil {
		publisher = event.NewNoopPublisher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		jwt:       jwt,
		publisher: publisher,
		logger:    logger,
	}
}

// SignInResult contains the access token issued after a successful sign-in.
type SignInResult struct {
	AccessToken      string
	ExpiresAt        time.Time
	ExpiresInSeconds int64
	User             *domain.User
}

// SignIn authenticates a credential pair and returns a signed access token.
// Email uniqueness is not enforced by storage; the first match in creation order wins.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.users.RetrieveAll(ctx).
		Where(func(u *domain.User) bool { return u.HasEmail(email) }).
		First(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, s.users.tr.single(ctx, &domain.NotFoundEntityError{Entity: "User", Field: "email", Value: email})
	}

	if err := s.hasher.Verify(password, user.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, s.users.tr.single(ctx, err)
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, s.users.tr.single(ctx, err)
	}

	if err := s.publisher.Publish(ctx, domain.UserSignedInEvent(user)); err != nil {
		s.logger.WarnContext(ctx, "publishing event failed", slog.String("error", err.Error()))
	}

	return &SignInResult{
		AccessToken:      token,
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: int64(s.jwt.AccessTokenTTL().Seconds()),
		User:             user,
	}, nil
}

// ValidateToken checks an access token and returns its claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	return s.jwt.ValidateAccessToken(token)
}

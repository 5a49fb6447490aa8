package service

import (
	"context"
	"time"

	"nextfilm/internal/auth"
	"nextfilm/internal/models"
	"nextfilm/internal/observability"
	"nextfilm/internal/repository"
	"nextfilm/internal/validation"
)

// TokenRevoker records a session token id as no longer valid for ttl.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService handles sign-in, session lookup and sign-out.
type AuthService struct {
	userRepo repository.UserRepository
	users    *UserService
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	revoker  TokenRevoker
	media    *Media
	now      func() time.Time
	log      *observability.ServiceLogger
}

// SignInResult carries the issued session token and the signed-in user.
type SignInResult struct {
	Token     string       `json:"access_token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func NewAuthService(
	userRepo repository.UserRepository,
	users *UserService,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	revoker TokenRevoker,
	media *Media,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		revoker:  revoker,
		media:    media,
		now:      time.Now,
		log:      observability.NewServiceLogger("auth"),
	}
}

// SignIn checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	invalid := models.NewUnauthenticatedError("Invalid credentials")

	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		s.log.Error(ctx, "stored credential unreadable", err, "user_id", user.ID)
		return nil, err
	}
	if !ok {
		return nil, invalid
	}

	token, issued, err := s.tokens.IssueIdentity(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user.AvatarURL = s.media.SignedURL(ctx, user.Avatar)
	return &SignInResult{
		Token:     token,
		ExpiresAt: issued.ExpiresAt,
		User:      user.Sanitize(),
	}, nil
}

// Session returns the signed-in user, or nil for an anonymous request or a
// token whose user no longer exists.
func (s *AuthService) Session(ctx context.Context, identity *auth.Identity) (*models.User, error) {
	if identity == nil {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if models.HasCode(err, models.CodeNotFound) {
		return nil, nil
	}
	return user, err
}

// SignOut revokes the token for the rest of its lifetime. Without a revoker
// sign-out only clears the client cookie.
func (s *AuthService) SignOut(ctx context.Context, identity *auth.Identity) {
	if identity == nil || identity.TokenID == "" || s.revoker == nil {
		return
	}
	ttl := identity.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.revoker.Revoke(ctx, identity.TokenID, ttl); err != nil {
		s.log.Warn(ctx, "token revocation failed", "error", err.Error())
	}
}

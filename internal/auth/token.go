package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenTTL is the fixed lifetime of a session token.
	TokenTTL = 7 * 24 * time.Hour

	tokenIssuer   = "nextfilm-api"
	tokenAudience = "nextfilm-client"
)

// Identity is the authenticated subject carried by a session token.
type Identity struct {
	UserID    uint      `json:"sub"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService builds a TokenService signing with secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret is required")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// WithClock replaces the time source; used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for userID and email that expires after TokenTTL.
func (s *TokenService) Issue(userID uint, email string) (string, error) {
	token, _, err := s.IssueIdentity(userID, email)
	return token, err
}

// IssueIdentity signs a token and returns the identity it encodes, with
// ExpiresAt exactly as written into the exp claim.
func (s *TokenService) IssueIdentity(userID uint, email string) (string, Identity, error) {
	now := s.now()
	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Identity{}, err
	}
	return signed, Identity{
		UserID:    userID,
		Email:     email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify parses token and returns its identity. ok is false for any bad
// signature, unexpected algorithm, malformed payload or expired token.
func (s *TokenService) Verify(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Identity{}, false
	}

	return Identity{
		UserID:    uint(userID),
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

// ResolveIdentity is the single verification primitive behind both auth
// policies: nil means anonymous.
func (s *TokenService) ResolveIdentity(token string) *Identity {
	id, ok := s.Verify(token)
	if !ok {
		return nil
	}
	return &id
}

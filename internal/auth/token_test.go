package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newTestTokenService(t *testing.T, now time.Time) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	require.NoError(t, err)
	return ts.WithClock(func() time.Time { return now })
}

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ts := newTestTokenService(t, now)

	token, err := ts.Issue(42, "ana@example.com")
	require.NoError(t, err)

	id, ok := ts.Verify(token)
	require.True(t, ok)
	assert.Equal(t, uint(42), id.UserID)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.NotEmpty(t, id.TokenID)
	assert.WithinDuration(t, now.Add(TokenTTL), id.ExpiresAt, time.Second)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	t.Parallel()

	ts := newTestTokenService(t, time.Now())
	a, err := ts.Issue(1, "a@example.com")
	require.NoError(t, err)
	b, err := ts.Issue(1, "a@example.com")
	require.NoError(t, err)

	idA, _ := ts.Verify(a)
	idB, _ := ts.Verify(b)
	assert.NotEqual(t, idA.TokenID, idB.TokenID)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	issuer := newTestTokenService(t, issuedAt)
	token, err := issuer.Issue(7, "late@example.com")
	require.NoError(t, err)

	verifier := newTestTokenService(t, time.Now())
	_, ok := verifier.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_Tampered(t *testing.T) {
	t.Parallel()

	ts := newTestTokenService(t, time.Now())
	token, err := ts.Issue(7, "x@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	// Flip one signature character.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, ok := ts.Verify(tampered)
	assert.False(t, ok)
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	ts := newTestTokenService(t, time.Now())
	token, err := ts.Issue(7, "x@example.com")
	require.NoError(t, err)

	other, err := NewTokenService("a-completely-different-secret-value")
	require.NoError(t, err)
	_, ok := other.Verify(token)
	assert.False(t, ok)
}

func TestTokenService_RejectsForeignClaims(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ts := newTestTokenService(t, now)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	base := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "5",
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noExpiry := base()
	noExpiry.ExpiresAt = nil
	badSubject := base()
	badSubject.Subject = "not-a-number"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong issuer", sign(sessionClaims{RegisteredClaims: wrongIssuer}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong audience", sign(sessionClaims{RegisteredClaims: wrongAudience}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing expiry", sign(sessionClaims{RegisteredClaims: noExpiry}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"non numeric subject", sign(sessionClaims{RegisteredClaims: badSubject}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"none algorithm", sign(sessionClaims{RegisteredClaims: base()}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ts.Verify(tt.token)
			assert.False(t, ok)
			assert.Nil(t, ts.ResolveIdentity(tt.token))
		})
	}
}

func TestTokenService_ResolveIdentity(t *testing.T) {
	t.Parallel()

	ts := newTestTokenService(t, time.Now())
	token, err := ts.Issue(9, "nine@example.com")
	require.NoError(t, err)

	id := ts.ResolveIdentity(token)
	require.NotNil(t, id)
	assert.Equal(t, uint(9), id.UserID)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService("")
	assert.Error(t, err)
}

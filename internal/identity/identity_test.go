package identity

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
)

const secret = "test-secret-0123456789"

var now = time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)

func sign(t *testing.T, method jwtv5.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(time.Hour))
	}
	token, err := jwtv5.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name   string
		claims Claims
		want   application.Principal
		err    error
	}{
		{
			name:   "current shape",
			claims: Claims{UserID: "stu-1", UserType: "student"},
			want:   application.Principal{UserID: "stu-1", Role: application.RoleStudent},
		},
		{
			name:   "role is case insensitive",
			claims: Claims{UserID: "adm-1", UserType: "Admin"},
			want:   application.Principal{UserID: "adm-1", Role: application.RoleAdmin},
		},
		{
			name:   "legacy mentor token",
			claims: Claims{MentorID: "men-1"},
			want:   application.Principal{UserID: "men-1", Role: application.RoleMentor},
		},
		{
			name:   "current shape wins over legacy",
			claims: Claims{UserID: "cns-1", UserType: "counselor", MentorID: "men-1"},
			want:   application.Principal{UserID: "cns-1", Role: application.RoleCounselor},
		},
		{name: "unknown role", claims: Claims{UserID: "x", UserType: "parent"}, err: ErrUnknownSubject},
		{name: "missing role", claims: Claims{UserID: "x"}, err: ErrUnknownSubject},
		{name: "no subject", claims: Claims{}, err: ErrUnknownSubject},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.claims)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Equal(t, application.Principal{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestVerifierPrincipal(t *testing.T) {
	v := NewVerifier(secret, WithClock(func() time.Time { return now }))

	t.Run("valid token", func(t *testing.T) {
		token := sign(t, jwtv5.SigningMethodHS256, []byte(secret), Claims{UserID: "men-1", UserType: "mentor"})
		p, err := v.Principal(token)
		require.NoError(t, err)
		assert.Equal(t, application.Principal{UserID: "men-1", Role: application.RoleMentor}, p)
	})

	t.Run("legacy token", func(t *testing.T) {
		token := sign(t, jwtv5.SigningMethodHS256, []byte(secret), Claims{MentorID: "men-2"})
		p, err := v.Principal(token)
		require.NoError(t, err)
		assert.Equal(t, application.RoleMentor, p.Role)
	})

	failures := []struct {
		name  string
		token func(t *testing.T) string
		err   error
	}{
		{"empty", func(*testing.T) string { return "  " }, ErrTokenMissing},
		{"garbage", func(*testing.T) string { return "not.a.jwt" }, ErrTokenInvalid},
		{"wrong secret", func(t *testing.T) string {
			return sign(t, jwtv5.SigningMethodHS256, []byte("another-secret-value"), Claims{UserID: "a", UserType: "admin"})
		}, ErrTokenInvalid},
		{"wrong algorithm", func(t *testing.T) string {
			return sign(t, jwtv5.SigningMethodHS512, []byte(secret), Claims{UserID: "a", UserType: "admin"})
		}, ErrTokenInvalid},
		{"expired", func(t *testing.T) string {
			claims := Claims{UserID: "a", UserType: "admin"}
			claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(-time.Minute))
			return sign(t, jwtv5.SigningMethodHS256, []byte(secret), claims)
		}, ErrTokenExpired},
		{"no expiry", func(t *testing.T) string {
			token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, Claims{UserID: "a", UserType: "admin"}).SignedString([]byte(secret))
			require.NoError(t, err)
			return token
		}, ErrTokenInvalid},
		{"unknown role", func(t *testing.T) string {
			return sign(t, jwtv5.SigningMethodHS256, []byte(secret), Claims{UserID: "a", UserType: "root"})
		}, ErrUnknownSubject},
		{"unsigned", func(t *testing.T) string {
			return sign(t, jwtv5.SigningMethodNone, jwtv5.UnsafeAllowNoneSignatureType, Claims{UserID: "a", UserType: "admin"})
		}, ErrTokenInvalid},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			p, err := v.Principal(tc.token(t))
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, application.Principal{}, p)
		})
	}

	t.Run("empty secret fails closed", func(t *testing.T) {
		token := sign(t, jwtv5.SigningMethodHS256, []byte(secret), Claims{UserID: "a", UserType: "admin"})
		_, err := NewVerifier("").Principal(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, ErrTokenMissing, header)
	}
}

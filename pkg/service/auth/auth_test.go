package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeVerifier struct {
	code string
}

func (v codeVerifier) Verify(_ context.Context, phone, code string) (string, error) {
	if code != v.code {
		return "", otp.ErrOTPMismatch
	}
	return user.NormalizePhone(phone)
}

var jwtCfg = &config.Jwt{Secret: "test-secret", Expiry: time.Hour}

func newService(t *testing.T) (*authsvc.Service, *user.User) {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	u, _ := testutils.SeedUser(t, db, "Anu", "9000000001", "0")
	return authsvc.NewWithJWT(infrarepo.NewUoW(db), codeVerifier{code: "123456"}, jwtCfg, slog.Default()), u
}

func TestLogin(t *testing.T) {
	svc, seeded := newService(t)
	ctx := context.Background()

	u, err := svc.Login(ctx, "9000000001", "123456")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, u.ID)

	_, err = svc.Login(ctx, "9000000001", "000000")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(ctx, "9000000009", "123456")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestJWTRoundTrip(t *testing.T) {
	svc, u := newService(t)
	strategy := authsvc.NewJWTStrategy(jwtCfg, slog.Default())

	raw, err := svc.GenerateToken(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	token, err := strategy.Parse(raw)
	require.NoError(t, err)

	p, err := svc.CurrentPrincipal(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, u.Phone, p.Phone)
	assert.Equal(t, u.Handle, p.Handle)
}

func TestJWTStrategy_Rejects(t *testing.T) {
	strategy := authsvc.NewJWTStrategy(jwtCfg, slog.Default())

	other := authsvc.NewJWTStrategy(&config.Jwt{Secret: "other", Expiry: time.Hour}, slog.Default())
	raw, err := other.GenerateToken(context.Background(), &user.User{ID: uuid.New(), Phone: "+919000000001"})
	require.NoError(t, err)
	_, err = strategy.Parse(raw)
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	expired := authsvc.NewJWTStrategy(&config.Jwt{Secret: "test-secret", Expiry: -time.Minute}, slog.Default())
	raw, err = expired.GenerateToken(context.Background(), &user.User{ID: uuid.New(), Phone: "+919000000001"})
	require.NoError(t, err)
	_, err = strategy.Parse(raw)
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing user id", jwt.MapClaims{"phone": "+919000000001"}},
		{"bad user id", jwt.MapClaims{"user_id": "nope", "phone": "+919000000001"}},
		{"missing phone", jwt.MapClaims{"user_id": uuid.NewString()}},
	}
	svc := authsvc.New(nil, nil, strategy, slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CurrentPrincipal(jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims))
			assert.True(t, errors.Is(err, authsvc.ErrUnauthenticated))
		})
	}
	_, err = svc.CurrentPrincipal(nil)
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)
}

func TestBasicStrategy(t *testing.T) {
	svc := authsvc.NewWithBasic(nil, nil, slog.Default())
	u := &user.User{ID: uuid.New(), Phone: "+919000000001", Handle: "anu@upi"}

	_, err := svc.PrincipalFrom(context.Background())
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)

	token, err := svc.GenerateToken(context.Background(), u)
	require.NoError(t, err)
	assert.Empty(t, token)

	p, err := svc.PrincipalFrom(authsvc.WithPrincipal(context.Background(), u))
	require.NoError(t, err)
	assert.Equal(t, "anu@upi", p.Handle)
}

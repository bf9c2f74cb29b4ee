package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	principalContextKey contextKey = "principal"
)

// ErrUnauthenticated is returned when no usable credential is present.
var ErrUnauthenticated = fmt.Errorf("%w: missing or invalid credentials", domain.ErrUnauthorized)

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Phone  string
	Handle string
}

// OTPVerifier checks a one-time code and returns the normalized phone.
type OTPVerifier interface {
	Verify(ctx context.Context, phone, code string) (string, error)
}

type Strategy interface {
	GenerateToken(ctx context.Context, u *user.User) (string, error)
	CurrentPrincipal(ctx context.Context) (*Principal, error)
}

type Service struct {
	uow      repository.UnitOfWork
	verifier OTPVerifier
	strategy Strategy
	logger   *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	verifier OTPVerifier,
	strategy Strategy,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, verifier: verifier, strategy: strategy, logger: logger}
}

// NewWithJWT is used by the HTTP server.
func NewWithJWT(
	uow repository.UnitOfWork,
	verifier OTPVerifier,
	cfg *config.Jwt,
	logger *slog.Logger,
) *Service {
	return New(uow, verifier, NewJWTStrategy(cfg, logger), logger)
}

// NewWithBasic is used by the CLI, which keeps the principal in its context
// instead of issuing tokens.
func NewWithBasic(
	uow repository.UnitOfWork,
	verifier OTPVerifier,
	logger *slog.Logger,
) *Service {
	return New(uow, verifier, NewBasicStrategy(logger), logger)
}

// Login verifies code for phone and returns the user owning it. A verified
// phone with no user yields user.ErrUserNotFound; the OTP then stays usable
// for sign up.
func (s *Service) Login(ctx context.Context, phone, code string) (*user.User, error) {
	log := s.logger.With("context", "Login")
	log.Debug("Login called")
	normalized, err := s.verifier.Verify(ctx, phone, code)
	if err != nil {
		log.Warn("Login failed", "error", err)
		return nil, err
	}
	repo, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	u, err := repo.GetByPhone(ctx, normalized)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			log.Error("Login failed", "error", err)
		}
		return nil, err
	}
	log.Info("Login successful", "userID", u.ID)
	return u, nil
}

func (s *Service) GenerateToken(ctx context.Context, u *user.User) (string, error) {
	log := s.logger.With("userID", u.ID)
	log.Debug("GenerateToken called")
	token, err := s.strategy.GenerateToken(ctx, u)
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Info("GenerateToken successful")
	return token, nil
}

// CurrentPrincipal reads the caller from a token placed in Locals by the JWT
// middleware.
func (s *Service) CurrentPrincipal(token *jwt.Token) (*Principal, error) {
	return s.strategy.CurrentPrincipal(context.WithValue(context.Background(), userContextKey, token))
}

// PrincipalFrom reads the caller from ctx.
func (s *Service) PrincipalFrom(ctx context.Context) (*Principal, error) {
	return s.strategy.CurrentPrincipal(ctx)
}

// JWTStrategy signs HS256 tokens carrying the user id, phone and handle.
type JWTStrategy struct {
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

func NewJWTStrategy(cfg *config.Jwt, logger *slog.Logger) *JWTStrategy {
	return &JWTStrategy{cfg: cfg, logger: logger, now: time.Now}
}

func (s *JWTStrategy) GenerateToken(_ context.Context, u *user.User) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = u.ID.String()
	claims["phone"] = u.Phone
	claims["handle"] = u.Handle
	claims["exp"] = s.now().Add(s.cfg.Expiry).Unix()
	return token.SignedString([]byte(s.cfg.Secret))
}

// Parse validates raw and returns the token. The HTTP middleware does the
// same; the CLI and tests use this directly.
func (s *JWTStrategy) Parse(raw string) (*jwt.Token, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return token, nil
}

func (s *JWTStrategy) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	token, ok := ctx.Value(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrUnauthenticated
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	rawID, _ := claims["user_id"].(string)
	phone, _ := claims["phone"].(string)
	handle, _ := claims["handle"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil || phone == "" {
		s.logger.Warn("CurrentPrincipal failed", "error", "malformed claims")
		return nil, ErrUnauthenticated
	}
	return &Principal{UserID: id, Phone: phone, Handle: handle}, nil
}

// BasicStrategy issues no tokens; the principal travels in the context.
type BasicStrategy struct {
	logger *slog.Logger
}

func NewBasicStrategy(logger *slog.Logger) *BasicStrategy {
	return &BasicStrategy{logger: logger}
}

func (s *BasicStrategy) GenerateToken(context.Context, *user.User) (string, error) {
	return "", nil
}

func (s *BasicStrategy) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok || p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// WithPrincipal returns a context carrying the principal for u.
func WithPrincipal(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, principalContextKey, &Principal{UserID: u.ID, Phone: u.Phone, Handle: u.Handle})
}

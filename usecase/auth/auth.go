package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/policy"
	"github.com/taskhub/backend/repository"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// Config holds the credential and token settings for the auth use case.
type Config struct {
	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	SessionTTL time.Duration
	BcryptCost int
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	policy   *policy.Policy
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, pol *policy.Policy, cfg Config, logger *zap.Logger) *UseCase {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		policy:   pol,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates a new account. An email on the protected allow-list is
// granted the admin role immediately so founding admins can bootstrap
// themselves.
func (uc *UseCase) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if len(name) < 2 || len(name) > 80 {
		return nil, domain.NewError(domain.ErrCodeValidation, "name must be between 2 and 80 characters")
	}
	if !emailRegexp.MatchString(email) {
		return nil, domain.NewError(domain.ErrCodeValidation, "invalid email address")
	}
	if len(password) < 8 || len(password) > 72 {
		return nil, domain.NewError(domain.ErrCodeValidation, "password must be between 8 and 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if uc.policy != nil && uc.policy.IsProtected("", email) {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginResult carries both credentials handed to the client: a bearer token
// and a cookie-backed session.
type LoginResult struct {
	Token   string
	Session *domain.Session
	User    *domain.User
}

// Login verifies the credentials and issues a JWT plus a server session.
// Lookup failure and password mismatch return the same error so callers
// cannot probe which emails are registered.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid email or password")
	}

	token, err := uc.signToken(user.ID)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(uc.cfg.SessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Session: session, User: user}, nil
}

// Logout revokes the server session. The JWT stays valid until expiry; the
// cookie is cleared by the transport layer.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, sessionID)
}

// PrincipalFromSession resolves a session cookie to the full authenticated
// identity.
func (uc *UseCase) PrincipalFromSession(ctx context.Context, sessionID string) (domain.Principal, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return uc.principalFor(ctx, session.UserID)
}

// PrincipalFromToken resolves a bearer token to the full authenticated
// identity.
func (uc *UseCase) PrincipalFromToken(ctx context.Context, tokenString string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return []byte(uc.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return uc.principalFor(ctx, sub)
}

func (uc *UseCase) principalFor(ctx context.Context, userID string) (domain.Principal, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return user.Principal(), nil
}

func (uc *UseCase) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    uc.cfg.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(uc.cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.JWTSecret))
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/users"
	pkgauth "github.com/Blazious/fun-learning-system/pkg/auth"
	"github.com/Blazious/fun-learning-system/pkg/auth/session"
	"github.com/Blazious/fun-learning-system/pkg/config"
	"github.com/Blazious/fun-learning-system/pkg/db"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	minPasswordLength         = 8
)

type userRepository interface {
	CreateWithProfile(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes registration, login, and session lifecycle operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
}

// Options wires the auth service dependencies.
type Options struct {
	Repo     userRepository
	Sessions sessionManager
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     userRepository
	sessions sessionManager
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService validates the options and returns a ready auth service.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.JWT.Secret == "" || opts.JWT.Issuer == "" {
		return nil, fmt.Errorf("jwt config is incomplete")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:     opts.Repo,
		sessions: opts.Sessions,
		jwt:      opts.JWT,
		password: opts.Password,
		logg:     opts.Logger,
		now:      now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.New(apperrors.CodeValidation, "a valid email is required")
	}
	if username == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "username is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	role := enums.PlatformRoleListener
	if input.Role != "" {
		parsed, err := enums.ParsePlatformRole(input.Role)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid platform role")
		}
		role = parsed
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.New(apperrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "checking email availability")
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, apperrors.New(apperrors.CodeConflict, "username is already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "checking username availability")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
	}

	user, err := s.repo.CreateWithProfile(ctx, users.CreateUserDTO{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "account already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "creating user")
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(logCtx, "user registered")

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: users.FromModel(user), Tokens: tokens}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.authenticate(ctx, email, input.Password)
	if err != nil {
		return nil, err
	}

	s.recordLogin(ctx, user)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: users.FromModel(user), Tokens: tokens}, nil
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	if strings.TrimSpace(input.AccessToken) == "" || strings.TrimSpace(input.RefreshToken) == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "access and refresh tokens are required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid access token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading user")
	}
	if !user.IsActive || user.DeletedAt != nil {
		return nil, apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthorized, err, "refresh token rejected")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "rotating session")
	}

	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "minting access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return apperrors.New(apperrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if len(input.NewPassword) < minPasswordLength {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return apperrors.Wrap(apperrors.CodeDependency, err, "loading user")
	}
	if !user.IsActive || user.DeletedAt != nil {
		return apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return apperrors.New(apperrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "hashing password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "updating password")
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "password changed")
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, apperrors.New(apperrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "account is disabled")
	}

	return user, nil
}

// recordLogin is best effort; a failed timestamp update never blocks a login.
func (s *service) recordLogin(ctx context.Context, user *models.User) {
	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		logCtx := s.logg.WithUserID(ctx, user.ID.String())
		s.logg.Warn(logCtx, "failed to record login timestamp")
	}
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeInternal, err, "minting access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return TokenPair{}, apperrors.Wrap(apperrors.CodeDependency, err, "creating refresh session")
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

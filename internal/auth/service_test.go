package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Blazious/fun-learning-system/internal/users"
	pkgauth "github.com/Blazious/fun-learning-system/pkg/auth"
	"github.com/Blazious/fun-learning-system/pkg/auth/session"
	"github.com/Blazious/fun-learning-system/pkg/config"
	"github.com/Blazious/fun-learning-system/pkg/db/models"
	"github.com/Blazious/fun-learning-system/pkg/enums"
	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
	"github.com/Blazious/fun-learning-system/pkg/security"
)

type fakeUserRepo struct {
	createFn          func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	findByEmailFn     func(ctx context.Context, email string) (*models.User, error)
	findByUsernameFn  func(ctx context.Context, username string) (*models.User, error)
	findByIDFn        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	updateLastLoginFn func(ctx context.Context, id uuid.UUID, at time.Time) error
	updatePasswordFn  func(ctx context.Context, id uuid.UUID, hash string) error
}

func (f *fakeUserRepo) CreateWithProfile(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createFn == nil {
		return nil, errors.New("unexpected CreateWithProfile call")
	}
	return f.createFn(ctx, dto)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findByEmailFn(ctx, email)
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.findByUsernameFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findByUsernameFn(ctx, username)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findByIDFn(ctx, id)
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if f.updateLastLoginFn == nil {
		return nil
	}
	return f.updateLastLoginFn(ctx, id, at)
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if f.updatePasswordFn == nil {
		return nil
	}
	return f.updatePasswordFn(ctx, id, hash)
}

type fakeSessions struct {
	generated []string
	revoked   []string
	rotateFn  func(oldAccessID, provided string) (string, string, error)
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateFn == nil {
		return "", "", session.ErrInvalidRefreshToken
	}
	return f.rotateFn(oldAccessID, provided)
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "fun-learning-system",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	// frozen for determinism, but anchored to the wall clock: token parsing
	// validates exp against real time, so a fixed past instant would expire
	issuedAt := time.Now().UTC().Truncate(time.Second)
	svc, err := NewService(Options{
		Repo:     repo,
		Sessions: sessions,
		JWT:      testJWTConfig(),
		Password: config.PasswordConfig{},
		Logger:   testLogger(),
		Now:      func() time.Time { return issuedAt },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return hash
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	appErr := apperrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code())
	}
}

func TestRegisterCreatesUserAndIssuesTokens(t *testing.T) {
	sessions := &fakeSessions{}
	var created *users.CreateUserDTO
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
			created = &dto
			user := dto.ToModel()
			user.ID = uuid.New()
			return user, nil
		},
	}
	svc := newTestService(t, repo, sessions)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  Alice@Example.com ",
		Username:  "alice",
		Password:  "correct-horse",
		FirstName: "Alice",
		LastName:  "Reed",
		Role:      "speaker",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if created == nil {
		t.Fatal("expected user to be created")
	}
	if created.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.Role != enums.PlatformRoleSpeaker {
		t.Fatalf("expected speaker role, got %s", created.Role)
	}
	if strings.Contains(created.PasswordHash, "correct-horse") {
		t.Fatal("password must not be stored in plaintext")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.generated))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, &fakeSessions{})

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Username: "u", Password: "long-enough"}},
		{"bad email", RegisterInput{Email: "not-an-email", Username: "u", Password: "long-enough"}},
		{"short password", RegisterInput{Email: "a@b.com", Username: "u", Password: "short"}},
		{"bad role", RegisterInput{Email: "a@b.com", Username: "u", Password: "long-enough", Role: "admin"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			expectCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "taken@example.com"}
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, _ string) (*models.User, error) {
			return existing, nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@example.com",
		Username: "newcomer",
		Password: "long-enough",
	})
	expectCode(t, err, apperrors.CodeConflict)
}

func TestLoginSuccess(t *testing.T) {
	userID := uuid.New()
	var loginRecorded bool
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email != "alice@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{
				ID:           userID,
				Email:        email,
				Username:     "alice",
				PasswordHash: hashFor(t, "correct-horse"),
				Role:         enums.PlatformRoleListener,
				IsActive:     true,
			}, nil
		},
		updateLastLoginFn: func(_ context.Context, id uuid.UUID, _ time.Time) error {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			loginRecorded = true
			return nil
		},
	}
	sessions := &fakeSessions{}
	svc := newTestService(t, repo, sessions)

	result, err := svc.Login(context.Background(), LoginInput{Email: "Alice@Example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !loginRecorded {
		t.Fatal("expected last login to be recorded")
	}
	if result.User.ID != userID {
		t.Fatalf("expected user %s, got %s", userID, result.User.ID)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("parsing issued token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected token subject %s, got %s", userID, claims.UserID)
	}
	if len(sessions.generated) != 1 || claims.ID != sessions.generated[0] {
		t.Fatal("expected refresh session keyed by the token jti")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{
				ID:           uuid.New(),
				PasswordHash: hashFor(t, "the-real-password"),
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	expectCode(t, err, apperrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{
				ID:           uuid.New(),
				PasswordHash: hashFor(t, "correct-horse"),
				IsActive:     false,
			}, nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	_, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct-horse"})
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestRefreshRotatesSession(t *testing.T) {
	userID := uuid.New()
	oldAccessID := session.NewAccessID()

	access, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.PlatformRoleListener,
		JTI:    oldAccessID,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			if id != userID {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{ID: userID, Role: enums.PlatformRoleListener, IsActive: true}, nil
		},
	}
	newAccessID := session.NewAccessID()
	sessions := &fakeSessions{
		rotateFn: func(gotOld, provided string) (string, string, error) {
			if gotOld != oldAccessID {
				t.Fatalf("expected rotation of %s, got %s", oldAccessID, gotOld)
			}
			if provided != "refresh-token" {
				t.Fatalf("unexpected refresh token %q", provided)
			}
			return newAccessID, "new-refresh-token", nil
		},
	}
	svc := newTestService(t, repo, sessions)

	pair, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  access,
		RefreshToken: "refresh-token",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken != "new-refresh-token" {
		t.Fatalf("expected rotated refresh token, got %q", pair.RefreshToken)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parsing rotated token: %v", err)
	}
	if claims.ID != newAccessID {
		t.Fatalf("expected new jti %s, got %s", newAccessID, claims.ID)
	}
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	userID := uuid.New()
	access, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.PlatformRoleListener,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.User, error) {
			return &models.User{ID: userID, Role: enums.PlatformRoleListener, IsActive: true}, nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	_, err = svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  access,
		RefreshToken: "stale-token",
	})
	expectCode(t, err, apperrors.CodeUnauthorized)

	_, err = svc.Refresh(context.Background(), RefreshInput{AccessToken: "garbage", RefreshToken: "x"})
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestRefreshDisabledAccount(t *testing.T) {
	userID := uuid.New()
	access, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.PlatformRoleListener,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.User, error) {
			return &models.User{ID: userID, Role: enums.PlatformRoleListener, IsActive: false}, nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	_, err = svc.Refresh(context.Background(), RefreshInput{AccessToken: access, RefreshToken: "any"})
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &fakeSessions{}
	svc := newTestService(t, &fakeUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-id" {
		t.Fatalf("expected access-id to be revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatal("expected blank access id to be rejected")
	}
}

func TestChangePassword(t *testing.T) {
	userID := uuid.New()
	var storedHash string
	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			if id != userID {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{
				ID:           userID,
				Email:        "alice@example.com",
				PasswordHash: hashFor(t, "old-password"),
				IsActive:     true,
			}, nil
		},
		updatePasswordFn: func(_ context.Context, id uuid.UUID, hash string) error {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			storedHash = hash
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	err := svc.ChangePassword(context.Background(), userID, ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-123",
	})
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if storedHash == "" {
		t.Fatal("expected new hash to be stored")
	}
	if ok, _ := security.VerifyPassword("new-password-123", storedHash); !ok {
		t.Fatal("stored hash does not verify against new password")
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	userID := uuid.New()
	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{
				ID:           userID,
				PasswordHash: hashFor(t, "old-password"),
				IsActive:     true,
			}, nil
		},
		updatePasswordFn: func(_ context.Context, _ uuid.UUID, _ string) error {
			t.Fatal("password must not be updated")
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeSessions{})

	err := svc.ChangePassword(context.Background(), userID, ChangePasswordInput{
		CurrentPassword: "guess",
		NewPassword:     "new-password-123",
	})
	expectCode(t, err, apperrors.CodeUnauthorized)

	err = svc.ChangePassword(context.Background(), userID, ChangePasswordInput{
		CurrentPassword: "old-password",
		NewPassword:     "short",
	})
	expectCode(t, err, apperrors.CodeValidation)
}

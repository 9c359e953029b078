package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/mail"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	svc    *AuthService
	outbox *mail.Outbox
	events *events.Recorder
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.WishlistItem{}, &models.RefreshToken{}, &models.PasswordReset{},
	))

	env := &testEnv{outbox: &mail.Outbox{}, events: &events.Recorder{}, db: db}
	env.svc = &AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Mailer:        env.outbox,
		Events:        env.events,
		ResetURL:      "https://shop.example/reset",
	}
	return env
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "empty username", in: RegisterInput{Email: "a@example.com", Password: "Secret123"}},
		{name: "bad email", in: RegisterInput{Username: "a", Email: "nope", Password: "Secret123"}},
		{name: "short password", in: RegisterInput{Username: "a", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_SuccessAndConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.register(t, "alice")
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, uuid.Nil, u.ID)

	_, err := env.svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.svc.Register(ctx, RegisterInput{Username: "other", Email: "ALICE@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrConflict)

	sent := env.outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Len(t, env.events.Events(events.TopicUser), 1)
}

func TestLogin_IssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "bob")

	_, err := env.svc.Login(ctx, "bob", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "", "x")
	assert.ErrorIs(t, err, ErrValidation)

	res, err := env.svc.Login(ctx, "bob@example.com", "Secret123")
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)

	access, err := tokens.AccessClaimsFromToken(res.AccessToken, env.svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), access.Subject)
	assert.Equal(t, models.RoleUser, access.Role)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), access.ExpiresAt.Time, 5*time.Second)

	refresh, err := tokens.RefreshClaimsFromToken(res.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)
	stored, err := env.svc.Repo.FindRefreshByID(ctx, refresh.ID)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "carol")

	login, err := env.svc.Login(ctx, "carol", "Secret123")
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", u.ID).Update("role", models.RoleAdmin).Error)

	refreshed, err := env.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, refreshed.IsAdmin)

	oldClaims, err := tokens.RefreshClaimsFromToken(login.RefreshToken, env.svc.RefreshSecret)
	require.NoError(t, err)
	old, err := env.svc.Repo.FindRefreshByID(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	_, err = env.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.svc.Refresh(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogOut_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "dave")

	require.NoError(t, env.svc.LogOut(ctx, ""))

	login, err := env.svc.Login(ctx, "dave", "Secret123")
	require.NoError(t, err)
	require.NoError(t, env.svc.LogOut(ctx, login.RefreshToken))

	_, err = env.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func resetToken(t *testing.T, msg mail.Message) string {
	t.Helper()
	i := strings.Index(msg.Body, "token=")
	require.GreaterOrEqual(t, i, 0)
	return strings.TrimSpace(msg.Body[i+len("token="):])
}

func TestPasswordReset_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "erin")

	login, err := env.svc.Login(ctx, "erin", "Secret123")
	require.NoError(t, err)

	require.NoError(t, env.svc.ForgotPassword(ctx, "nobody@example.com"))
	require.Len(t, env.outbox.Sent(), 1)

	require.NoError(t, env.svc.ForgotPassword(ctx, "Erin@Example.com"))
	sent := env.outbox.Sent()
	require.Len(t, sent, 2)
	token := resetToken(t, sent[1])

	assert.ErrorIs(t, env.svc.ResetPassword(ctx, token, "short"), ErrValidation)
	require.NoError(t, env.svc.ResetPassword(ctx, token, "NewSecret456"))
	assert.ErrorIs(t, env.svc.ResetPassword(ctx, token, "Another789"), errs.ErrValidation)

	_, err = env.svc.Login(ctx, "erin", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "erin", "NewSecret456")
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestPasswordReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "frank")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.svc.Now = func() time.Time { return now }
	require.NoError(t, env.svc.ForgotPassword(ctx, "frank@example.com"))
	token := resetToken(t, env.outbox.Sent()[1])

	now = now.Add(2 * time.Hour)
	assert.ErrorIs(t, env.svc.ResetPassword(ctx, token, "NewSecret456"), errs.ErrValidation)
}

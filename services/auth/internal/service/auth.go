package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/pkg/logging"
	pkgmail "github.com/Skotchmaster/storefront/pkg/mail"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/repo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation          = errs.ErrValidation
	ErrConflict            = errs.ErrConflict
	ErrInvalidCredentials  = repo.ErrInvalidCredentials
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const minPasswordLen = 8

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Mailer        pkgmail.Mailer
	Events        events.Publisher

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	// ResetURL prefixes the token in password reset mails.
	ResetURL string

	Now func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type userEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
}

func (h *AuthService) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func ttl(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (h *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" {
		return nil, fmt.Errorf("username required: %w", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, " <>") {
		return nil, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		return nil, err
	}

	h.send(ctx, pkgmail.Message{
		To:      user.Email,
		Subject: "Welcome to the store",
		Body:    fmt.Sprintf("Hi %s, your account is ready.", user.Username),
	})
	h.publish(ctx, userEvent{Type: "user_registered", UserID: user.ID})
	return user, nil
}

func (h *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, fmt.Errorf("login and password required: %w", ErrValidation)
	}

	user, err := h.Repo.UserExist(ctx, strings.TrimSpace(login), password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			l.Error("login_failed", "status", 500, "error", err)
		}
		return nil, err
	}
	return h.issue(ctx, user)
}

func (h *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	now := h.now()
	accessExp := now.Add(ttl(h.AccessTTL, 15*time.Minute))
	accessToken, err := tokens.SignAccess(h.JWTSecret, user.ID.String(), user.Role, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}

	refreshExp := now.Add(ttl(h.RefreshTTL, 7*24*time.Hour))
	jti := jwthelp.NewJTI()
	refreshToken, err := tokens.SignRefresh(h.RefreshSecret, user.ID.String(), jti, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh: %w", err)
	}

	if err := h.Repo.AddRefreshToDB(ctx, user.ID, refreshToken, jti, refreshExp); err != nil {
		return nil, fmt.Errorf("store refresh: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.Role == models.RoleAdmin,
	}, nil
}

// Refresh rotates a refresh token. The role in the new access token is read from the user
// record, not from the old access token.
func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, h.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}

	user, err := h.Repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	now := h.now()
	accessExp := now.Add(ttl(h.AccessTTL, 15*time.Minute))
	accessToken, err := tokens.SignAccess(h.JWTSecret, user.ID.String(), user.Role, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}

	refreshExp := now.Add(ttl(h.RefreshTTL, 7*24*time.Hour))
	jti := jwthelp.NewJTI()
	newRefresh, err := tokens.SignRefresh(h.RefreshSecret, user.ID.String(), jti, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh: %w", err)
	}

	err = h.Repo.RotateRefreshToken(ctx, claims.ID, now, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: jwthelp.Sha256Hex(newRefresh),
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrRefreshUnusable) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.Role == models.RoleAdmin,
	}, nil
}

func (h *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return h.Repo.LogOut(ctx, refreshToken)
}

// ForgotPassword mails a one-time reset token. Unknown emails succeed silently.
func (h *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email required: %w", ErrValidation)
	}

	user, err := h.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Info("password_reset_unknown_email")
			return nil
		}
		return err
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	if err := h.Repo.CreatePasswordReset(ctx, user.ID, token, h.now().Add(ttl(h.ResetTTL, time.Hour))); err != nil {
		return err
	}

	h.send(ctx, pkgmail.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body:    fmt.Sprintf("Use this link to reset your password: %s?token=%s", h.ResetURL, token),
	})
	return nil
}

func (h *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return fmt.Errorf("token required: %w", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return err
	}
	userID, err := h.Repo.ResetPassword(ctx, token, pwHash, h.now())
	if err != nil {
		return err
	}

	h.publish(ctx, userEvent{Type: "password_reset", UserID: userID})
	return nil
}

func (h *AuthService) send(ctx context.Context, msg pkgmail.Message) {
	if h.Mailer == nil {
		return
	}
	if err := h.Mailer.Send(ctx, msg); err != nil {
		logging.FromContext(ctx).Warn("mail_send_failed", "subject", msg.Subject, "error", err)
	}
}

func (h *AuthService) publish(ctx context.Context, ev userEvent) {
	if h.Events == nil {
		return
	}
	if err := h.Events.PublishEvent(ctx, events.TopicUser, ev.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("user_event_publish_failed", "type", ev.Type, "error", err)
	}
}

package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"research-cms-server/internal/config"
	"research-cms-server/internal/mail"
	"research-cms-server/internal/models"
	"research-cms-server/internal/repo"
	"research-cms-server/internal/session"
	"research-cms-server/internal/utils"
)

// UserStore is the slice of the credential store the auth flows need.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error)
	SetResetToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (bool, error)
}

type AuthService struct {
	users  UserStore
	codec  *session.Codec
	mailer mail.Mailer
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(users UserStore, codec *session.Codec, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{users: users, codec: codec, mailer: mailer, cfg: cfg, now: time.Now}
}

// Login checks the credentials and, for admins only, returns the user
// together with an encoded session cookie value. A cookie value is
// produced if and only if the password verifies and the role is admin.
// "No such user" and "wrong password" are indistinguishable to the
// caller to avoid account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", utils.NewAppError(401, "UNAUTHORIZED", "invalid credentials", nil)
		}
		return nil, "", utils.NewAppError(500, "INTERNAL_ERROR", "could not look up user", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", utils.NewAppError(401, "UNAUTHORIZED", "invalid credentials", nil)
	}

	if !user.IsActive {
		return nil, "", utils.NewAppError(401, "UNAUTHORIZED", "invalid credentials", nil)
	}

	if !user.Role.CanManageContent() {
		return nil, "", utils.NewAppError(403, "FORBIDDEN", "admin access required", nil)
	}

	value, err := s.codec.Encode(session.Descriptor{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", utils.NewAppError(500, "INTERNAL_ERROR", "could not create session", nil)
	}

	return user, value, nil
}

// ForgotPassword issues a single-use reset token and mails the reset
// link. Unknown emails succeed without persisting or sending anything,
// so the endpoint cannot be used to probe which accounts exist. The
// raw token leaves the process only inside the emailed URL; the store
// keeps its SHA-256.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return utils.NewAppError(500, "INTERNAL_ERROR", "could not look up user", nil)
	}

	token, err := generateResetToken()
	if err != nil {
		return utils.NewAppError(500, "INTERNAL_ERROR", "could not generate token", nil)
	}

	expiresAt := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hashResetToken(token), expiresAt); err != nil {
		return utils.NewAppError(500, "INTERNAL_ERROR", "could not store reset token", nil)
	}

	resetURL := fmt.Sprintf("%s?token=%s", s.cfg.ResetURLBase, token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		// The token stays persisted but the requester never saw it.
		return utils.NewAppError(500, "DELIVERY_FAILED", "could not send reset email", nil)
	}

	return nil
}

// ResetPassword redeems a token and installs the new password. The
// match, the password write, and the token clearing happen in one
// conditional store update, so each token authorizes at most one
// change; a second redemption finds nothing to match.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < s.cfg.PasswordMinLen {
		return utils.NewAppError(400, "VALIDATION_ERROR", fmt.Sprintf("password must be at least %d characters", s.cfg.PasswordMinLen), nil)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.NewAppError(500, "INTERNAL_ERROR", "could not secure password", nil)
	}

	ok, err := s.users.ConsumeResetToken(ctx, hashResetToken(token), string(passwordHash))
	if err != nil {
		return utils.NewAppError(500, "INTERNAL_ERROR", "could not update password", nil)
	}
	if !ok {
		return utils.NewAppError(400, "INVALID_OR_EXPIRED_TOKEN", "reset token is invalid or expired", nil)
	}

	return nil
}

// CurrentUser resolves a decoded session back to its user record.
func (s *AuthService) CurrentUser(ctx context.Context, desc session.Descriptor) (*models.User, error) {
	user, err := s.users.GetByID(ctx, desc.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, utils.NewAppError(404, "NOT_FOUND", "user not found", nil)
		}
		return nil, utils.NewAppError(500, "INTERNAL_ERROR", "could not look up user", nil)
	}
	return user, nil
}

func (s *AuthService) CreateUser(ctx context.Context, email, name, password string, role models.Role) (*models.User, error) {
	if len(password) < s.cfg.PasswordMinLen {
		return nil, utils.NewAppError(400, "VALIDATION_ERROR", fmt.Sprintf("password must be at least %d characters", s.cfg.PasswordMinLen), nil)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, utils.NewAppError(500, "INTERNAL_ERROR", "could not check existing users", nil)
	}
	if exists {
		return nil, utils.NewAppError(409, "CONFLICT", "email already registered", nil)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewAppError(500, "INTERNAL_ERROR", "could not secure password", nil)
	}

	user, err := s.users.Create(ctx, email, name, role, string(passwordHash))
	if err != nil {
		return nil, utils.NewAppError(500, "INTERNAL_ERROR", "could not create user", nil)
	}

	return user, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"research-cms-server/internal/models"
)

var ErrNotFound = errors.New("not found")

type UserRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewUserRepo(pool *pgxpool.Pool, timeout time.Duration) *UserRepo {
	return &UserRepo{pool: pool, timeout: timeout}
}

const userColumns = `id, email, name, role, is_active, avatar_url, password_hash,
	reset_token_hash, reset_token_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.IsActive,
		&user.AvatarURL,
		&user.PasswordHash,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = parsed
	return &user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM users WHERE email = $1
	`, userColumns), email)
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM users WHERE id = $1
	`, userColumns), id)
	return scanUser(row)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepo) Create(ctx context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, userColumns), email, name, role.String(), passwordHash)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// SetResetToken stores a pending reset token for the user. A single
// unconditional row update: concurrent requests for the same user
// resolve last-write-wins, so only the newest token stays redeemable.
func (r *UserRepo) SetResetToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, tokenHash, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken redeems a pending token in one conditional update:
// the new password is written and both token fields are nulled only on
// a row whose stored token matches and has not expired. Returns false
// when no such row exists, which covers unknown, expired, superseded,
// and already-redeemed tokens alike.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE reset_token_hash = $2 AND reset_token_expires_at > NOW()
	`, newPasswordHash, tokenHash)
	if err != nil {
		return false, fmt.Errorf("consume reset token: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

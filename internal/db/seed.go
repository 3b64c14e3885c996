package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminUser creates the bootstrap admin account if no user with
// the configured email exists yet. Without it a fresh deployment has
// no way into the dashboard.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, email, password, name string) error {
	ctxCheck, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	row := pool.QueryRow(ctxCheck, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	ctxInsert, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err = pool.Exec(ctxInsert, `
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1, $2, 'admin', $3)
	`, email, name, string(hash))
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

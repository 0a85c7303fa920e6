package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/domain"
	"github.com/simonhust/trailer/internal/logger"
)

// AdminRepository handles reviewer identities and role-gated admin
// creation.
type AdminRepository struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewAdminRepository creates an admin repository.
func NewAdminRepository(db *sqlx.DB, log logger.Logger) *AdminRepository {
	return &AdminRepository{db: db, log: log}
}

// EnsureSuperAdmin creates the super admin if the username is absent.
// Rerunning with the same username is a no-op, so bootstrap is idempotent
// and safe under concurrent startup.
func (r *AdminRepository) EnsureSuperAdmin(ctx context.Context, username, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash, role)
		VALUES ($1, $2, 'super')
		ON CONFLICT (username) DO NOTHING`,
		username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("ensure super admin: %w", err)
	}

	if rows, rowsErr := res.RowsAffected(); rowsErr == nil && rows > 0 {
		r.log.Info("super admin created",
			logger.String("username", username))
	}
	return nil
}

// GetByUsername fetches an admin, returning domain.ErrNotFound when the
// username is unknown.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := r.db.GetContext(ctx, admin, `
		SELECT username, password_hash, role, created_at
		FROM admins
		WHERE username = $1`,
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// Verify checks a username/password pair. Unknown usernames and wrong
// passwords both yield domain.ErrInvalidCredentials; a successful check
// returns the stored admin with its canonical username and role.
func (r *AdminRepository) Verify(ctx context.Context, username, password string) (*domain.Admin, error) {
	admin, err := r.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, admin.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return admin, nil
}

// CreateSecondary inserts a secondary admin on behalf of actor. Only a
// super admin may create admins; duplicate usernames yield
// domain.ErrAlreadyExists.
func (r *AdminRepository) CreateSecondary(ctx context.Context, actorUsername, username, passwordHash string) error {
	actor, err := r.GetByUsername(ctx, actorUsername)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleSuper {
		return domain.ErrForbidden
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash, role)
		VALUES ($1, $2, 'secondary')`,
		username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create secondary admin: %w", err)
	}

	r.log.Info("secondary admin created",
		logger.String("username", username),
		logger.String("created_by", actorUsername))

	return nil
}

// List returns all admins, newest first.
func (r *AdminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	admins := []domain.Admin{}
	err := r.db.SelectContext(ctx, &admins, `
		SELECT username, password_hash, role, created_at
		FROM admins
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

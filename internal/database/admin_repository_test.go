package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/domain"
	"github.com/simonhust/trailer/internal/logger"
)

func newAdminRepo(t *testing.T) (*database.AdminRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewAdminRepository(db, logger.NewNop())
	return repo, mock, func() { mockDB.Close() }
}

func TestAdminRepository_EnsureSuperAdmin_Idempotent(t *testing.T) {
	repo, mock, cleanup := newAdminRepo(t)
	defer cleanup()

	// First run inserts, second run hits ON CONFLICT DO NOTHING.
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("root", "hash-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("root", "hash-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := repo.EnsureSuperAdmin(ctx, "root", "hash-1"); err != nil {
		t.Fatalf("EnsureSuperAdmin() first run error = %v", err)
	}
	if err := repo.EnsureSuperAdmin(ctx, "root", "hash-1"); err != nil {
		t.Fatalf("EnsureSuperAdmin() second run error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAdminRepository_Verify(t *testing.T) {
	passwordHash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	adminRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("alice", passwordHash, "super", time.Now())
	}

	testCases := []struct {
		name      string
		password  string
		setupMock func(mock sqlmock.Sqlmock)
		wantRole  domain.AdminRole
		wantErr   error
	}{
		{
			name:     "valid credentials",
			password: "correct-horse",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT username, password_hash, role, created_at").
					WithArgs("alice").
					WillReturnRows(adminRows())
			},
			wantRole: domain.RoleSuper,
		},
		{
			name:     "wrong password",
			password: "battery-staple",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT username, password_hash, role, created_at").
					WithArgs("alice").
					WillReturnRows(adminRows())
			},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:     "unknown username",
			password: "correct-horse",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT username, password_hash, role, created_at").
					WithArgs("alice").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrInvalidCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, cleanup := newAdminRepo(t)
			defer cleanup()

			tc.setupMock(mock)

			admin, verifyErr := repo.Verify(context.Background(), "alice", tc.password)
			if tc.wantErr != nil {
				if !errors.Is(verifyErr, tc.wantErr) {
					t.Errorf("Verify() error = %v, want %v", verifyErr, tc.wantErr)
				}
				return
			}

			if verifyErr != nil {
				t.Fatalf("Verify() error = %v", verifyErr)
			}
			if admin.Username != "alice" {
				t.Errorf("Verify() username = %s, want alice", admin.Username)
			}
			if admin.Role != tc.wantRole {
				t.Errorf("Verify() role = %s, want %s", admin.Role, tc.wantRole)
			}
		})
	}
}

func TestAdminRepository_CreateSecondary_Forbidden(t *testing.T) {
	repo, mock, cleanup := newAdminRepo(t)
	defer cleanup()

	// Actor is secondary, so no insert statement is ever issued.
	mock.ExpectQuery("SELECT username, password_hash, role, created_at").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("bob", "hash", "secondary", time.Now()))

	err := repo.CreateSecondary(context.Background(), "bob", "carol", "hash-2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("CreateSecondary() error = %v, want ErrForbidden", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAdminRepository_CreateSecondary_Conflict(t *testing.T) {
	repo, mock, cleanup := newAdminRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT username, password_hash, role, created_at").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("alice", "hash", "super", time.Now()))
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("carol", "hash-2").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateSecondary(context.Background(), "alice", "carol", "hash-2")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("CreateSecondary() error = %v, want ErrAlreadyExists", err)
	}
}

func TestAdminRepository_CreateSecondary_Success(t *testing.T) {
	repo, mock, cleanup := newAdminRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT username, password_hash, role, created_at").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("alice", "hash", "super", time.Now()))
	mock.ExpectExec("INSERT INTO admins").
		WithArgs("carol", "hash-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateSecondary(context.Background(), "alice", "carol", "hash-2"); err != nil {
		t.Fatalf("CreateSecondary() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAdminRepository_List_NewestFirst(t *testing.T) {
	repo, mock, cleanup := newAdminRepo(t)
	defer cleanup()

	newer := time.Now()
	older := newer.Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT username, password_hash, role, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash", "role", "created_at"}).
			AddRow("carol", "hash", "secondary", newer).
			AddRow("alice", "hash", "super", older))

	admins, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(admins) != 2 {
		t.Fatalf("List() returned %d admins, want 2", len(admins))
	}
	if admins[0].Username != "carol" {
		t.Errorf("List() first admin = %s, want carol (newest first)", admins[0].Username)
	}
}

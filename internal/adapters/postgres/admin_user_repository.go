package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// AdminUserRepository implements ports.AdminUserRepository
type AdminUserRepository struct {
	db ports.DBPort
}

// NewAdminUserRepository creates a new admin user repository
func NewAdminUserRepository(db ports.DBPort) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// GetByUsername retrieves a user by exact username
func (r *AdminUserRepository) GetByUsername(ctx context.Context, db ports.DBTX, username string) (*models.AdminUser, error) {
	row := r.executor(db).QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM payments_admin_users WHERE username = $1`,
		username)

	user, err := scanAdminUser(row)
	if err != nil {
		return nil, wrapError("get admin user", err, domain.ErrAdminUserNotFound)
	}
	return user, nil
}

// List returns every user ordered by username
func (r *AdminUserRepository) List(ctx context.Context, db ports.DBTX) ([]*models.AdminUser, error) {
	rows, err := r.executor(db).Query(ctx,
		`SELECT id, username, password_hash, role, created_at FROM payments_admin_users ORDER BY username`)
	if err != nil {
		return nil, wrapError("list admin users", err, nil)
	}
	defer rows.Close()

	var users []*models.AdminUser
	for rows.Next() {
		user, err := scanAdminUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate admin users", err, nil)
	}

	return users, nil
}

// Create inserts a user and fills in ID and CreatedAt
func (r *AdminUserRepository) Create(ctx context.Context, tx ports.DBTX, user *models.AdminUser) error {
	err := r.executor(tx).QueryRow(ctx,
		`INSERT INTO payments_admin_users (username, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Username, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrorCodeAdminUserExists, domain.ErrAdminUserExists.Message, err)
		}
		return wrapError("create admin user", err, nil)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

func scanAdminUser(row pgx.Row) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

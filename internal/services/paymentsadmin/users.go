package paymentsadmin

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// UserService manages payments admin accounts
type UserService struct {
	db     ports.DBPort
	users  ports.AdminUserRepository
	logger ports.Logger
	hash   func(password string) (string, error)
}

// NewUserService creates a new admin user service
func NewUserService(db ports.DBPort, users ports.AdminUserRepository, logger ports.Logger) *UserService {
	return &UserService{
		db:     db,
		users:  users,
		logger: logger,
		hash:   auth.HashPassword,
	}
}

// CreateUserRequest holds the fields of a new admin user
type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

// ListUsers returns every admin user ordered by username
func (s *UserService) ListUsers(ctx context.Context) ([]*models.AdminUser, error) {
	return s.users.List(ctx, nil)
}

// CreateUser validates and stores a new admin user. The role is kept as
// entered and must name one of the privileged roles.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.AdminUser, error) {
	username := strings.TrimSpace(req.Username)
	role := strings.TrimSpace(req.Role)
	if username == "" || req.Password == "" || role == "" {
		return nil, domain.ErrMissingUserFields
	}
	if !models.IsPrivilegedRole(role) {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.users.GetByUsername(ctx, nil, username); err == nil {
		return nil, domain.ErrAdminUserExists
	} else if !domain.IsNotFoundError(err) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.AdminUser{Username: username, PasswordHash: hash, Role: role}
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.users.Create(ctx, tx, user)
	})
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrorCodeAdminUserExists) {
			s.logger.Error("failed to create payments admin user",
				ports.String("username", username),
				ports.Err(err))
		}
		return nil, err
	}

	s.logger.Info("payments admin user created",
		ports.String("username", user.Username),
		ports.String("role", user.Role))
	return user, nil
}

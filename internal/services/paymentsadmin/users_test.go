package paymentsadmin

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (*UserService, *mocks.MockAdminUserRepository) {
	repo := new(mocks.MockAdminUserRepository)
	svc := NewUserService(new(mocks.MockDBPort), repo, mocks.NewMockLogger())
	svc.hash = func(password string) (string, error) { return "hashed:" + password, nil }
	return svc, repo
}

func TestCreateUser_Success(t *testing.T) {
	svc, repo := newTestUserService()
	repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(nil, domain.ErrAdminUserNotFound)
	repo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(u *models.AdminUser) bool {
		return u.Username == "alice" && u.PasswordHash == "hashed:s3cret" && u.Role == "Chairman"
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.AdminUser).ID = 11
	}).Return(nil)

	user, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: " alice ", Password: "s3cret", Role: " Chairman "})
	require.NoError(t, err)
	assert.Equal(t, int64(11), user.ID)
	assert.Equal(t, "Chairman", user.Role, "role is stored as entered")
	repo.AssertExpectations(t)
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateUserRequest
		want error
	}{
		{name: "missing username", req: CreateUserRequest{Password: "p", Role: "ceo"}, want: domain.ErrMissingUserFields},
		{name: "blank username", req: CreateUserRequest{Username: "  ", Password: "p", Role: "ceo"}, want: domain.ErrMissingUserFields},
		{name: "missing password", req: CreateUserRequest{Username: "a", Role: "ceo"}, want: domain.ErrMissingUserFields},
		{name: "missing role", req: CreateUserRequest{Username: "a", Password: "p"}, want: domain.ErrMissingUserFields},
		{name: "invalid role", req: CreateUserRequest{Username: "a", Password: "p", Role: "manager"}, want: domain.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService()
			_, err := svc.CreateUser(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_Exists(t *testing.T) {
	t.Run("found on lookup", func(t *testing.T) {
		svc, repo := newTestUserService()
		repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(&models.AdminUser{ID: 1, Username: "alice"}, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: "alice", Password: "p", Role: "CFO"})
		assert.True(t, errors.Is(err, domain.ErrAdminUserExists))
	})

	t.Run("lost the insert race", func(t *testing.T) {
		svc, repo := newTestUserService()
		repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(nil, domain.ErrAdminUserNotFound)
		repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrAdminUserExists)

		_, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: "alice", Password: "p", Role: "CFO"})
		assert.True(t, errors.Is(err, domain.ErrAdminUserExists))
	})
}

func TestCreateUser_LookupFailure(t *testing.T) {
	svc, repo := newTestUserService()
	repo.On("GetByUsername", mock.Anything, mock.Anything, "alice").Return(nil, domain.ErrDatabaseUnavailable)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Username: "alice", Password: "p", Role: "CFO"})
	assert.True(t, domain.IsUnavailableError(err))
}

func TestListUsers(t *testing.T) {
	svc, repo := newTestUserService()
	users := []*models.AdminUser{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}
	repo.On("List", mock.Anything, mock.Anything).Return(users, nil)

	got, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

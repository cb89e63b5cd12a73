package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/observability"
)

// Credentials is everything a request presented for payments-admin access
type Credentials struct {
	// Token is the X-ADMIN-TOKEN header or admin_token query value
	Token string
	// SessionSubject is the subject of a verified session cookie
	SessionSubject string
	// Basic auth
	Username string
	Password string
	HasBasic bool
}

// Authenticator is one credential source in the resolution chain.
// It returns a principal on success, (nil, nil) when it does not apply, or a
// terminal error that stops the chain.
type Authenticator interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*Principal, error)
}

// Chain evaluates authenticators in order; the first match wins
type Chain struct {
	authenticators []Authenticator
	logger         ports.Logger
}

// NewChain creates a resolution chain
func NewChain(logger ports.Logger, authenticators ...Authenticator) *Chain {
	return &Chain{authenticators: authenticators, logger: logger}
}

// Authenticate resolves the caller. When nothing matches it returns
// ErrAuthMissing without basic credentials and ErrAuthForbidden with them.
func (c *Chain) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	for _, a := range c.authenticators {
		principal, err := a.Authenticate(ctx, creds)
		if err != nil {
			observability.RecordAuthDecision(a.Name(), "denied")
			c.logger.Warn("Payments admin access denied",
				ports.String("strategy", a.Name()),
				ports.String("username", creds.Username),
				ports.Err(err))
			return nil, err
		}
		if principal != nil {
			observability.RecordAuthDecision(a.Name(), "granted")
			return principal, nil
		}
	}

	if !creds.HasBasic {
		observability.RecordAuthDecision("chain", "missing")
		return nil, domain.ErrAuthMissing
	}

	observability.RecordAuthDecision("chain", "forbidden")
	c.logger.Warn("Payments admin auth failed", ports.String("username", creds.Username))
	return nil, domain.ErrAuthForbidden
}

// TokenAuthenticator matches the configured static admin token
type TokenAuthenticator struct {
	token string
}

// NewTokenAuthenticator creates a token strategy. An empty token disables it.
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	return &TokenAuthenticator{token: token}
}

func (a *TokenAuthenticator) Name() string { return string(AuthTypeToken) }

func (a *TokenAuthenticator) Authenticate(_ context.Context, creds Credentials) (*Principal, error) {
	if a.token == "" || creds.Token == "" {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(a.token), []byte(creds.Token)) != 1 {
		return nil, nil
	}
	// A site-admin session, when also present, names the actor
	return &Principal{Type: AuthTypeToken, Username: creds.SessionSubject}, nil
}

// SessionAuthenticator matches a privileged site-admin session
type SessionAuthenticator struct {
	siteAdmins map[string]struct{}
}

// NewSessionAuthenticator creates a session strategy for the given site admins
func NewSessionAuthenticator(siteAdmins []string) *SessionAuthenticator {
	set := make(map[string]struct{}, len(siteAdmins))
	for _, u := range siteAdmins {
		set[u] = struct{}{}
	}
	return &SessionAuthenticator{siteAdmins: set}
}

func (a *SessionAuthenticator) Name() string { return string(AuthTypeSession) }

// IsSiteAdmin reports whether subject is a configured site admin
func (a *SessionAuthenticator) IsSiteAdmin(subject string) bool {
	if subject == "" {
		return false
	}
	_, ok := a.siteAdmins[subject]
	return ok
}

func (a *SessionAuthenticator) Authenticate(_ context.Context, creds Credentials) (*Principal, error) {
	if !a.IsSiteAdmin(creds.SessionSubject) {
		return nil, nil
	}
	return &Principal{Type: AuthTypeSession, Username: creds.SessionSubject}, nil
}

// AdminUserLookup is the slice of the admin user repository the chain needs
type AdminUserLookup interface {
	GetByUsername(ctx context.Context, db ports.DBTX, username string) (*models.AdminUser, error)
}

// AdminUserAuthenticator verifies basic credentials against the admin user table
type AdminUserAuthenticator struct {
	users  AdminUserLookup
	logger ports.Logger
}

// NewAdminUserAuthenticator creates the database-backed strategy
func NewAdminUserAuthenticator(users AdminUserLookup, logger ports.Logger) *AdminUserAuthenticator {
	return &AdminUserAuthenticator{users: users, logger: logger}
}

func (a *AdminUserAuthenticator) Name() string { return string(AuthTypeAdminUser) }

func (a *AdminUserAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Principal, error) {
	if !creds.HasBasic || a.users == nil {
		return nil, nil
	}

	user, err := a.users.GetByUsername(ctx, nil, creds.Username)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			// Store unavailable: fall through to the allow-list
			a.logger.Error("Error checking payments admin user",
				ports.String("username", creds.Username),
				ports.Err(err))
		}
		return nil, nil
	}

	if !VerifyPassword(user.PasswordHash, creds.Password) {
		return nil, nil
	}
	if !user.IsPrivileged() {
		return nil, forbiddenRole(user.Role)
	}

	return &Principal{Type: AuthTypeAdminUser, Username: user.Username, Role: user.Role}, nil
}

// AllowListEntry is one element of PAYMENTS_ADMIN_USERS
type AllowListEntry struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// ParseAllowList decodes the PAYMENTS_ADMIN_USERS JSON list
func ParseAllowList(raw string) ([]AllowListEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var entries []AllowListEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse PAYMENTS_ADMIN_USERS: %w", err)
	}
	return entries, nil
}

// AllowListAuthenticator verifies basic credentials against the environment allow-list
type AllowListAuthenticator struct {
	entries []AllowListEntry
}

// NewAllowListAuthenticator creates the allow-list strategy. A malformed list
// is logged and treated as empty.
func NewAllowListAuthenticator(raw string, logger ports.Logger) *AllowListAuthenticator {
	entries, err := ParseAllowList(raw)
	if err != nil {
		logger.Error("Failed to parse PAYMENTS_ADMIN_USERS env var", ports.Err(err))
	}
	return &AllowListAuthenticator{entries: entries}
}

func (a *AllowListAuthenticator) Name() string { return string(AuthTypeAllowList) }

func (a *AllowListAuthenticator) Authenticate(_ context.Context, creds Credentials) (*Principal, error) {
	if !creds.HasBasic {
		return nil, nil
	}

	var roleDenied *AllowListEntry
	for i := range a.entries {
		e := &a.entries[i]
		if e.Username != creds.Username || !VerifyPassword(e.PasswordHash, creds.Password) {
			continue
		}
		if models.IsPrivilegedRole(e.Role) {
			return &Principal{Type: AuthTypeAllowList, Username: e.Username, Role: e.Role}, nil
		}
		roleDenied = e
	}

	if roleDenied != nil {
		return nil, forbiddenRole(roleDenied.Role)
	}
	return nil, nil
}

func forbiddenRole(role string) error {
	return domain.NewDomainError(domain.ErrorCodeAuthForbiddenRole, domain.ErrAuthForbiddenRole.Message).
		WithDetail("role", role)
}

package auth

import (
	"context"

	"github.com/kevin07696/payments-admin/internal/domain/models"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	requestIDKey
	clientIPKey
)

// AuthType names the credential source that admitted the caller
type AuthType string

const (
	AuthTypeToken     AuthType = "token"
	AuthTypeSession   AuthType = "session"
	AuthTypeAdminUser AuthType = "admin_user"
	AuthTypeAllowList AuthType = "allow_list"
)

// UnknownActor is recorded when no caller identity is available
const UnknownActor = "unknown"

// Principal is an authorized payments-admin caller. Token and session
// principals carry no role and have full access.
type Principal struct {
	Type     AuthType
	Username string
	Role     string
}

// Actor returns the audit identity; nil or anonymous principals map to UnknownActor
func (p *Principal) Actor() models.Actor {
	if p == nil || p.Username == "" {
		return models.Actor{Username: UnknownActor}
	}
	return models.Actor{Username: p.Username, Role: p.Role}
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns nil for unauthenticated requests
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

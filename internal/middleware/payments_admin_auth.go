package middleware

import (
	"errors"
	"net/http"

	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/encoding"
)

// Header and query parameter carrying the static admin token
const (
	AdminTokenHeader = "X-ADMIN-TOKEN"
	AdminTokenQuery  = "admin_token"
	basicRealm       = `Basic realm="Payments Admin"`
)

// PaymentsAdminAuth gates the payments admin routes
type PaymentsAdminAuth struct {
	chain      *auth.Chain
	sessions   *auth.SessionCodec
	siteAdmins *auth.SessionAuthenticator
	cookieName string
	logger     ports.Logger
}

// NewPaymentsAdminAuth creates the payments admin gate. siteAdmins decides
// which session subjects pass the site-admin gate.
func NewPaymentsAdminAuth(
	chain *auth.Chain,
	sessions *auth.SessionCodec,
	siteAdmins *auth.SessionAuthenticator,
	cookieName string,
	logger ports.Logger,
) *PaymentsAdminAuth {
	return &PaymentsAdminAuth{
		chain:      chain,
		sessions:   sessions,
		siteAdmins: siteAdmins,
		cookieName: cookieName,
		logger:     logger,
	}
}

// sessionSubject returns the subject of a valid session cookie, or ""
func (m *PaymentsAdminAuth) sessionSubject(r *http.Request) string {
	if m.sessions == nil || !m.sessions.Enabled() {
		return ""
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	subject, err := m.sessions.Verify(cookie.Value)
	if err != nil {
		m.logger.Debug("Ignoring invalid session cookie", ports.Err(err))
		return ""
	}
	return subject
}

func (m *PaymentsAdminAuth) credentials(r *http.Request) auth.Credentials {
	creds := auth.Credentials{
		Token:          r.Header.Get(AdminTokenHeader),
		SessionSubject: m.sessionSubject(r),
	}
	if creds.Token == "" {
		creds.Token = r.URL.Query().Get(AdminTokenQuery)
	}
	creds.Username, creds.Password, creds.HasBasic = r.BasicAuth()
	return creds
}

// Require resolves the caller through the credential chain and stores the
// principal in the request context.
func (m *PaymentsAdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.chain.Authenticate(r.Context(), m.credentials(r))
		if err != nil {
			m.deny(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// RequireSiteAdmin admits only a privileged site-admin session
func (m *PaymentsAdminAuth) RequireSiteAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := m.sessionSubject(r)
		if !m.siteAdmins.IsSiteAdmin(subject) {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		principal := &auth.Principal{Type: auth.AuthTypeSession, Username: subject}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (m *PaymentsAdminAuth) deny(w http.ResponseWriter, err error) {
	switch {
	case domain.IsUnavailableError(err):
		_ = encoding.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "database_unavailable",
			"message": domain.ErrDatabaseUnavailable.Message,
		})
	case !domain.IsAuthError(err):
		m.logger.Error("Credential check failed", ports.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error")
	case errors.Is(err, domain.ErrAuthMissing):
		w.Header().Set("WWW-Authenticate", basicRealm)
		writeJSONError(w, http.StatusUnauthorized, "authentication_required")
	case errors.Is(err, domain.ErrAuthForbiddenRole):
		writeJSONError(w, http.StatusForbidden, "forbidden_role")
	default:
		writeJSONError(w, http.StatusForbidden, "forbidden")
	}
}

func writeJSONError(w http.ResponseWriter, status int, code string) {
	_ = encoding.WriteJSON(w, status, map[string]string{"error": code})
}

package paymentsadmin

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/payments-admin/internal/auth"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/services/paymentsadmin"
	"github.com/kevin07696/payments-admin/pkg/encoding"
	"go.uber.org/zap"
)

//go:embed pages/*.html
var pages embed.FS

// PaymentsService is the payment side of the admin service
type PaymentsService interface {
	ListPayments(ctx context.Context, q paymentsadmin.ListQuery) (*paymentsadmin.PaymentPage, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	GetPaymentDetail(ctx context.Context, id int64) (*paymentsadmin.PaymentDetail, error)
	AttachOrder(ctx context.Context, payment *models.Payment) paymentsadmin.PaymentDetail
	PerformAction(ctx context.Context, payment *models.Payment, req paymentsadmin.ActionRequest) (*models.ActionResult, error)
}

// UserManager manages admin accounts
type UserManager interface {
	ListUsers(ctx context.Context) ([]*models.AdminUser, error)
	CreateUser(ctx context.Context, req paymentsadmin.CreateUserRequest) (*models.AdminUser, error)
}

// Gate guards the admin routes
type Gate interface {
	Require(next http.Handler) http.Handler
	RequireSiteAdmin(next http.Handler) http.Handler
}

// Handler serves the payments admin pages and JSON API
type Handler struct {
	payments PaymentsService
	users    UserManager
	logger   *zap.Logger
}

// NewHandler creates a new payments admin handler
func NewHandler(payments PaymentsService, users UserManager, logger *zap.Logger) *Handler {
	return &Handler{
		payments: payments,
		users:    users,
		logger:   logger,
	}
}

// Routes returns the admin router, meant to be mounted at /payments-admin
func (h *Handler) Routes(gate Gate) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(gate.Require)
		r.Get("/", h.servePage("pages/payments_admin.html"))
		r.Get("/api/payments", h.ListPayments)
		r.Get("/api/payments/{id}", h.GetPayment)
		r.Post("/api/payments/{id}/refund", h.PaymentAction)
		r.Post("/api/refund", h.GenericAction)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireSiteAdmin)
		r.Get("/manage-users", h.servePage("pages/manage_users.html"))
		r.Get("/api/manage-users", h.ListUsers)
		r.Post("/api/manage-users", h.CreateUser)
	})

	return r
}

func (h *Handler) servePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := pages.ReadFile(name)
		if err != nil {
			h.logger.Error("Admin page missing", zap.String("page", name), zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// ListPayments handles GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := paymentsadmin.ParsePaging(q.Get("page"), q.Get("per_page"))

	result, err := h.payments.ListPayments(r.Context(), paymentsadmin.ListQuery{
		Page:     page,
		PerPage:  perPage,
		Duration: q.Get("duration"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		From:     firstParam(q.Get("from"), q.Get("from_date")),
		To:       firstParam(q.Get("to"), q.Get("to_date")),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "not_found")
		return
	}

	h.respondJSON(w, http.StatusOK, toPaymentPageView(result))
}

// GetPayment handles GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found")
		return
	}

	detail, err := h.payments.GetPaymentDetail(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "not_found")
		return
	}

	h.respondJSON(w, http.StatusOK, toPaymentView(*detail))
}

// PaymentAction handles POST /api/payments/{id}/refund
func (h *Handler) PaymentAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.respondError(w, http.StatusNotFound, "not_found")
		return
	}

	body := readJSONBody(r)
	req, err := actionRequest(r.Context(), body)
	if err != nil {
		h.respondServiceError(w, r, err, "not_found")
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "not_found")
		return
	}

	h.perform(w, r, payment, req)
}

// GenericAction handles POST /api/refund, which names the payment in the body
func (h *Handler) GenericAction(w http.ResponseWriter, r *http.Request) {
	body := readJSONBody(r)

	id, code := body.paymentID()
	if code != "" {
		h.respondError(w, http.StatusBadRequest, code)
		return
	}

	req, err := actionRequest(r.Context(), body)
	if err != nil {
		h.respondServiceError(w, r, err, models.MessagePaymentNotFound)
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, models.MessagePaymentNotFound)
		return
	}

	h.perform(w, r, payment, req)
}

func (h *Handler) perform(w http.ResponseWriter, r *http.Request, payment *models.Payment, req paymentsadmin.ActionRequest) {
	result, err := h.payments.PerformAction(r.Context(), payment, req)
	if err != nil {
		h.respondServiceError(w, r, err, models.MessagePaymentNotFound)
		return
	}

	view := ActionResultView{
		Success:        result.Success,
		Message:        result.Message,
		RefundResponse: result.RefundResponse,
		Detail:         result.Detail,
	}
	if result.Payment != nil {
		updated := toPaymentView(h.payments.AttachOrder(r.Context(), result.Payment))
		view.UpdatedPayment = &updated
	}

	h.respondJSON(w, actionStatus(result.Message), view)
}

// actionStatus maps an action outcome to its HTTP status
func actionStatus(message string) int {
	switch message {
	case models.MessageProviderRefundFailed:
		return http.StatusBadGateway
	case models.MessageRefundFailed, models.MessageRejectedActionFailed, models.MessageDBPersistFailed:
		return http.StatusInternalServerError
	case models.MessagePaymentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// actionRequest reads the action fields shared by both refund endpoints.
// refund_amount wins over amount whenever the key is present, even as null.
func actionRequest(ctx context.Context, body jsonBody) (paymentsadmin.ActionRequest, error) {
	amountKey := "amount"
	if body.has("refund_amount") {
		amountKey = "refund_amount"
	}
	note := body.firstStr("note", "note_to_payer")

	amount, err := body.number(amountKey, domain.ErrInvalidRefundAmount)
	if err != nil {
		return paymentsadmin.ActionRequest{}, err
	}
	percent, err := body.number("refund_percent", domain.ErrInvalidRefundPercent)
	if err != nil {
		return paymentsadmin.ActionRequest{}, err
	}

	return paymentsadmin.ActionRequest{
		Action:        body.str("action"),
		RefundAmount:  amount,
		RefundPercent: percent,
		Note:          note,
		Actor:         auth.GetPrincipal(ctx).Actor(),
	}, nil
}

// ListUsers handles GET /api/manage-users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "not_found")
		return
	}

	views := make([]AdminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, toAdminUserView(u))
	}
	h.respondJSON(w, http.StatusOK, views)
}

// CreateUser handles POST /api/manage-users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	body := readJSONBody(r)

	user, err := h.users.CreateUser(r.Context(), paymentsadmin.CreateUserRequest{
		Username: body.str("username"),
		Password: body.str("password"),
		Role:     body.str("role"),
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingUserFields):
		h.respondError(w, http.StatusBadRequest, domain.ErrMissingUserFields.Message)
		return
	case errors.Is(err, domain.ErrInvalidRole):
		h.respondError(w, http.StatusBadRequest, domain.ErrInvalidRole.Message)
		return
	case errors.Is(err, domain.ErrAdminUserExists):
		h.respondError(w, http.StatusConflict, "user_exists")
		return
	case domain.IsUnavailableError(err):
		h.respondUnavailable(w)
		return
	default:
		h.logger.Error("Failed to create admin user",
			zap.String("username", body.str("username")),
			zap.String("request_id", auth.GetRequestID(r.Context())),
			zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "create_failed")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// respondServiceError maps a service error onto the JSON error envelope.
// notFoundCode is the code used for a missing payment on this route.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundCode string) {
	switch {
	case domain.IsUnavailableError(err):
		h.logger.Warn("Database unavailable",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		h.respondUnavailable(w)
	case domain.IsNotFoundError(err):
		h.respondError(w, http.StatusNotFound, notFoundCode)
	case errors.Is(err, domain.ErrCustomRangeRequired):
		h.respondError(w, http.StatusBadRequest, "custom_duration_requires_from_and_to")
	case errors.Is(err, domain.ErrInvalidDate):
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_from_or_to_date",
			"message": domain.ErrInvalidDate.Message,
		})
	case errors.Is(err, domain.ErrInvalidRefundAmount):
		h.respondError(w, http.StatusBadRequest, "invalid_refund_amount")
	case errors.Is(err, domain.ErrInvalidRefundPercent):
		h.respondError(w, http.StatusBadRequest, "invalid_refund_percent")
	default:
		h.logger.Error("Payments admin request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", auth.GetRequestID(r.Context())),
			zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (h *Handler) respondUnavailable(w http.ResponseWriter) {
	h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error":   "database_unavailable",
		"message": domain.ErrDatabaseUnavailable.Message,
	})
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if err := encoding.WriteJSON(w, statusCode, data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
	}
}

// respondError sends an error response
func (h *Handler) respondError(w http.ResponseWriter, statusCode int, code string) {
	h.respondJSON(w, statusCode, map[string]string{"error": code})
}

// pathID reads a positive integer {id} path parameter
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func firstParam(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package paymentsadmin

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payments-admin/internal/domain"
	"github.com/kevin07696/payments-admin/internal/domain/models"
	"github.com/kevin07696/payments-admin/internal/domain/ports"
	"github.com/kevin07696/payments-admin/pkg/timeutil"
)

// Paging defaults and limits for the payment listing
const (
	DefaultPage    = 1
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// ListQuery holds the raw listing parameters as received
type ListQuery struct {
	Page     int
	PerPage  int
	Duration string
	Status   string
	Category string
	From     string
	To       string
}

// PaymentPage is one page of a payment listing
type PaymentPage struct {
	Items   []PaymentDetail
	Page    int
	PerPage int
	Total   int
	Pages   int
}

// Window is a creation-time range; nil bounds are open
type Window struct {
	Start *time.Time // Inclusive
	End   *time.Time // Exclusive
}

// ParsePaging reads page and per_page. Any unparsable value resets both to
// the defaults; per_page is clamped to MaxPerPage.
func ParsePaging(pageParam, perPageParam string) (int, int) {
	page, perPage := DefaultPage, DefaultPerPage

	if pageParam != "" {
		v, err := strconv.Atoi(strings.TrimSpace(pageParam))
		if err != nil {
			return DefaultPage, DefaultPerPage
		}
		page = v
	}
	if perPageParam != "" {
		v, err := strconv.Atoi(strings.TrimSpace(perPageParam))
		if err != nil {
			return DefaultPage, DefaultPerPage
		}
		perPage = v
	}

	return normalizePaging(page, perPage)
}

func normalizePaging(page, perPage int) (int, int) {
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = DefaultPage
	}
	return page, perPage
}

// ResolveWindow turns a duration keyword into a creation-time window
// relative to now. Unknown keywords fall back to daily.
func ResolveWindow(duration, from, to string, now time.Time) (Window, error) {
	now = now.UTC()
	today := timeutil.StartOfDay(now)

	between := func(start, end time.Time) Window {
		return Window{Start: &start, End: &end}
	}

	switch strings.ToLower(strings.TrimSpace(duration)) {
	case "yesterday":
		return between(timeutil.DaysBefore(now, 1), today), nil
	case "weekly", "week":
		return between(timeutil.DaysBefore(now, 6), now), nil
	case "monthly", "month":
		return between(timeutil.DaysBefore(now, 29), now), nil
	case "yearly", "year":
		return between(timeutil.DaysBefore(now, 364), now), nil
	case "all":
		return Window{}, nil
	case "custom":
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return Window{}, domain.ErrCustomRangeRequired
		}
		start, err := timeutil.ParseDay(from)
		if err != nil {
			return Window{}, domain.ErrInvalidDate
		}
		last, err := timeutil.ParseDay(to)
		if err != nil {
			return Window{}, domain.ErrInvalidDate
		}
		return between(start, timeutil.NextDay(last)), nil
	default:
		// "", daily, today and anything unrecognized
		return between(today, timeutil.NextDay(now)), nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// StatusPattern maps a status or legacy category filter onto a LIKE
// pattern over the lowercased status column. Empty means no filter.
func StatusPattern(status, category string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" {
		switch status {
		case "refunded", "refund":
			return "%refund%"
		case "disputed", "disput":
			return "%disput%"
		case "on_hold", "hold", "held":
			return "%hold%"
		case "settled", "rejected", "rejected_settled":
			return "%settle%"
		}
		return "%" + likeEscaper.Replace(status) + "%"
	}

	switch strings.ToLower(strings.TrimSpace(category)) {
	case "refunded":
		return "%refund%"
	case "disputed":
		return "%disput%"
	case "settled", "rejected":
		return "%settle%"
	}
	return ""
}

// ListPayments returns one page of payments, newest first, each with its
// linked order.
func (s *Service) ListPayments(ctx context.Context, q ListQuery) (*PaymentPage, error) {
	window, err := ResolveWindow(q.Duration, q.From, q.To, s.now())
	if err != nil {
		return nil, err
	}

	page, perPage := normalizePaging(q.Page, q.PerPage)
	filter := models.PaymentFilter{
		CreatedFrom:   window.Start,
		CreatedTo:     window.End,
		StatusPattern: StatusPattern(q.Status, q.Category),
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	}

	var (
		payments []*models.Payment
		total    int
	)
	err = s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		payments, total, err = s.payments.List(ctx, tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Outside the snapshot: a failed order lookup must not abort the page.
	orders := s.linkedOrders(ctx, nil, payments)
	items := make([]PaymentDetail, 0, len(payments))
	for _, p := range payments {
		item := PaymentDetail{Payment: p}
		if p.OrderID != nil {
			item.Order = orders[*p.OrderID]
		}
		items = append(items, item)
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}

	return &PaymentPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
	}, nil
}

// linkedOrders batches the order lookups for a page. A failed lookup is
// logged and the page is returned without orders.
func (s *Service) linkedOrders(ctx context.Context, db ports.DBTX, payments []*models.Payment) map[int64]*models.Order {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(payments))
	for _, p := range payments {
		if p.OrderID == nil {
			continue
		}
		if _, ok := seen[*p.OrderID]; ok {
			continue
		}
		seen[*p.OrderID] = struct{}{}
		ids = append(ids, *p.OrderID)
	}
	if len(ids) == 0 {
		return nil
	}

	orders, err := s.orders.GetByIDs(ctx, db, ids)
	if err != nil {
		s.logger.Warn("failed to load linked orders", ports.Int("count", len(ids)), ports.Err(err))
		return nil
	}
	return orders
}

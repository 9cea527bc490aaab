package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Requester is the authenticated caller as supplied by the access guard.
type Requester struct {
	EmployeeID int64
	Role       Role
}

// Filter is the caller-supplied, untrusted part of a history query.
type Filter struct {
	EmployeeID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
}

// TargetEmployee resolves whose records a requester acts on. Staff always
// act on themselves whatever they asked for; admins get the requested
// employee, or nil for everyone.
func TargetEmployee(req Requester, requested *int64) *int64 {
	if req.Role != RoleAdmin {
		id := req.EmployeeID
		return &id
	}
	return requested
}

// QueryService answers role-scoped history queries.
type QueryService struct {
	store Store
	log   zerolog.Logger
}

func NewQueryService(store Store, logger zerolog.Logger) *QueryService {
	return &QueryService{
		store: store,
		log:   logger.With().Str("component", "attendance_query").Logger(),
	}
}

// ListSessions returns the sessions visible to req that match f, newest
// first. A staff requester's employee filter is replaced by their own id.
func (q *QueryService) ListSessions(ctx context.Context, req Requester, f Filter) ([]View, error) {
	if err := validateRequester(req); err != nil {
		return nil, err
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, validationf("date_from must not be after date_to")
	}

	query := Query{EmployeeID: TargetEmployee(req, f.EmployeeID)}
	if f.DateFrom != nil {
		from := DateOf(*f.DateFrom)
		query.DateFrom = &from
	}
	if f.DateTo != nil {
		to := DateOf(*f.DateTo)
		query.DateTo = &to
	}
	return q.list(ctx, query)
}

// ListOpen returns the currently open sessions visible to req.
func (q *QueryService) ListOpen(ctx context.Context, req Requester) ([]View, error) {
	if err := validateRequester(req); err != nil {
		return nil, err
	}
	return q.list(ctx, Query{EmployeeID: TargetEmployee(req, nil), OpenOnly: true})
}

func (q *QueryService) list(ctx context.Context, query Query) ([]View, error) {
	records, err := q.store.List(ctx, query)
	if err != nil {
		q.log.Error().Err(err).Msg("listing sessions failed")
		return nil, storageError(err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})

	views := make([]View, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return views, nil
}

func validateRequester(req Requester) error {
	if !req.Role.Valid() {
		return validationf("unknown role %q", req.Role)
	}
	if req.EmployeeID <= 0 {
		return validationf("requester employee id is required")
	}
	return nil
}

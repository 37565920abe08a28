package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const MaxPageSize = 100

// QueryService serves read-only appointment lookups.
type QueryService struct {
	repo        Queries
	defaultSize int
}

func NewQueryService(repo Queries, defaultPageSize int) *QueryService {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	return &QueryService{repo: repo, defaultSize: defaultPageSize}
}

// NormalizePage clamps a requested page/limit to usable values.
func (q *QueryService) NormalizePage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = q.defaultSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Number: page, Limit: limit}
}

// List returns one page of appointments matching every filter, ordered by
// scheduled time, and the number of matches before paging.
func (q *QueryService) List(ctx context.Context, f Filter, page, limit int) ([]Appointment, int, Page, error) {
	p := q.NormalizePage(page, limit)

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return []Appointment{}, 0, p, nil
	}

	items, total, err := q.repo.ListAppointments(ctx, f, p)
	if err != nil {
		return nil, 0, p, fmt.Errorf("list appointments: %w", err)
	}
	if items == nil {
		items = []Appointment{}
	}
	return items, total, p, nil
}

func (q *QueryService) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := q.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, wrapLoad("appointment", err, ErrAppointmentNotFound)
	}
	return appt, nil
}

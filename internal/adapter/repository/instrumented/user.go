package instrumented

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	domain "user-directory/internal/domain/user"
	"user-directory/internal/usecase/user"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeNotFound  = "not_found"
	outcomeDuplicate = "duplicate"
	outcomeError     = "error"
)

// UserRepository implements user.Repository by wrapping a persistent
// repository and recording latency and outcome of every storage call.
// Concurrent lookups of the same id share one database round trip.
type UserRepository struct {
	next     user.Repository
	log      *zap.Logger
	group    singleflight.Group
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewUserRepository wraps next and registers its collectors with reg.
func NewUserRepository(next user.Repository, reg prometheus.Registerer, log *zap.Logger) *UserRepository {
	factory := promauto.With(reg)

	return &UserRepository{
		next: next,
		log:  log,
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "user_directory_repository_duration_seconds",
				Help:    "Duration of user repository calls in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "user_directory_repository_calls_total",
				Help: "Total number of user repository calls by outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// Create delegates to the wrapped repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	defer r.observe("create", time.Now())
	err := r.next.Create(ctx, u)
	r.record("create", err)
	return err
}

// GetByID coalesces concurrent lookups of the same id into one call. The
// shared call is detached from any single caller's cancellation; each caller
// stops waiting when its own context is done.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.observe("get_by_id", time.Now())

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan("user:"+id, func() (any, error) {
		return r.next.GetByID(shared, id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		r.record("get_by_id", ctx.Err())
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Shared {
		r.log.Debug("user lookup shared with concurrent caller", zap.String("id", id))
	}
	r.record("get_by_id", res.Err)
	if res.Err != nil {
		return nil, res.Err
	}

	// Callers may modify the record, so each one gets its own copy.
	u := *res.Val.(*domain.User)
	return &u, nil
}

// GetByFingerprint delegates to the wrapped repository.
func (r *UserRepository) GetByFingerprint(ctx context.Context, fp string) (*domain.User, error) {
	defer r.observe("get_by_fingerprint", time.Now())
	u, err := r.next.GetByFingerprint(ctx, fp)
	r.record("get_by_fingerprint", err)
	return u, err
}

// Update delegates to the wrapped repository.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	defer r.observe("update", time.Now())
	err := r.next.Update(ctx, u)
	r.record("update", err)
	return err
}

// Delete delegates to the wrapped repository.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	defer r.observe("delete", time.Now())
	err := r.next.Delete(ctx, id)
	r.record("delete", err)
	return err
}

// List delegates to the wrapped repository.
func (r *UserRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, error) {
	defer r.observe("list", time.Now())
	users, total, err := r.next.List(ctx, q)
	r.record("list", err)
	return users, total, err
}

func (r *UserRepository) observe(op string, start time.Time) {
	r.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *UserRepository) record(op string, err error) {
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		outcome = outcomeNotFound
	case errors.Is(err, domain.ErrDuplicateFingerprint):
		outcome = outcomeDuplicate
	default:
		outcome = outcomeError
	}
	r.calls.WithLabelValues(op, outcome).Inc()
}

// Package quota counts accepted-work withdrawals per professional and
// calendar month.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const keyPrefix = "trudify:withdrawals"

// a window long enough to outlive any calendar month; the month is part of
// the key
const window = 31 * 24 * time.Hour

type Limiter struct {
	limiter *limiter.Limiter
	now     func() time.Time
}

// NewMemoryLimiter keeps counters in process.
func NewMemoryLimiter(maxPerMonth int64) *Limiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          keyPrefix,
		CleanUpInterval: time.Hour,
	})

	return newLimiter(store, maxPerMonth)
}

// NewRedisLimiter shares counters between instances through redis.
func NewRedisLimiter(client *redis.Client, maxPerMonth int64) (*Limiter, error) {
	const op = "internal.quota.NewRedisLimiter"

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: keyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create redis store: %w", op, err)
	}

	return newLimiter(store, maxPerMonth), nil
}

func newLimiter(store limiter.Store, maxPerMonth int64) *Limiter {
	return &Limiter{
		limiter: limiter.New(store, limiter.Rate{Period: window, Limit: maxPerMonth}),
		now:     time.Now,
	}
}

func (l *Limiter) key(professionalID string) string {
	return professionalID + ":" + l.now().UTC().Format("2006-01")
}

// Check returns apperrors.ErrWithdrawalQuotaExceeded when the professional
// has no withdrawal left this month. It does not consume one.
func (l *Limiter) Check(ctx context.Context, professionalID string) error {
	const op = "internal.quota.Check"

	lctx, err := l.limiter.Peek(ctx, l.key(professionalID))
	if err != nil {
		return fmt.Errorf("%s: failed to read counter: %w", op, err)
	}

	if lctx.Remaining <= 0 {
		return fmt.Errorf("%w: %d withdrawals per month", apperrors.ErrWithdrawalQuotaExceeded, lctx.Limit)
	}

	return nil
}

// Record consumes one withdrawal.
func (l *Limiter) Record(ctx context.Context, professionalID string) error {
	const op = "internal.quota.Record"

	if _, err := l.limiter.Get(ctx, l.key(professionalID)); err != nil {
		return fmt.Errorf("%s: failed to increment counter: %w", op, err)
	}

	return nil
}

package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	defaultCartTTL       = 30 * 24 * time.Hour
	defaultCartBatchSize = 200
)

var errCartGone = errors.New("cart already removed")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StaleCartJobParams configure the abandoned cart purge.
type StaleCartJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Carts     cart.CartRepository
	Outbox    outboxEmitter
	TTL       time.Duration
	BatchSize int
}

// NewStaleCartJob builds the job deleting carts older than TTL.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultCartBatchSize
	}
	return &staleCartJob{
		logg:   params.Logger,
		db:     params.DB,
		carts:  params.Carts,
		outbox: params.Outbox,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type staleCartJob struct {
	logg   *logger.Logger
	db     txRunner
	carts  cart.CartRepository
	outbox outboxEmitter
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *staleCartJob) Name() string { return "stale_cart_cleanup" }

// Run deletes stale carts one transaction each, emitting cart_expired for every
// cart it actually removed. A failing cart is skipped and reported.
func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	var (
		purged  int
		failed  int
		errs    error
		skipped = map[string]struct{}{}
	)
	for {
		stale, err := j.carts.ListStale(ctx, cutoff, j.batch+len(skipped))
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list stale carts: %w", err))
		}
		progressed := false
		for _, sc := range stale {
			if _, seen := skipped[sc.ID.String()]; seen {
				continue
			}
			progressed = true
			if err := j.purge(ctx, sc); err != nil {
				if errors.Is(err, errCartGone) {
					continue
				}
				failed++
				skipped[sc.ID.String()] = struct{}{}
				errs = multierr.Append(errs, fmt.Errorf("cart %s: %w", sc.ID, err))
				continue
			}
			purged++
		}
		if !progressed || len(stale) < j.batch+len(skipped) {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"carts_purged": purged,
		"carts_failed": failed,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	return errs
}

func (j *staleCartJob) purge(ctx context.Context, sc cart.StaleCart) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := j.carts.WithTx(tx).Delete(ctx, sc.ID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return errCartGone
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartExpired,
			AggregateType: enums.AggregateCart,
			AggregateID:   sc.ID.String(),
			Data: payloads.CartExpiredEvent{
				CartID:    sc.ID,
				CreatedAt: sc.CreatedAt,
				ItemCount: sc.ItemCount,
			},
		})
	})
}

package order

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/marketday/backend/internal/domain/basket"
	"github.com/marketday/backend/internal/domain/order"
	"github.com/marketday/backend/internal/domain/schedule"
	"github.com/marketday/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Coordinator orchestrates the full order lifecycle: loading an open order
// into the basket, surfacing schedule and deadline facts, gating commits
// behind the edit cutoff, persisting updates, and archiving stale empty
// orders. It is the only component that writes to the order store.
type Coordinator struct {
	repo   order.Repository
	basket *basket.Store
	calc   *schedule.Calculator
	clock  shared.Clock
	log    *zap.Logger

	loaded *order.Order
}

// NewCoordinator creates a coordinator. A nil logger falls back to a no-op.
func NewCoordinator(repo order.Repository, store *basket.Store, calc *schedule.Calculator, clock shared.Clock, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		repo:   repo,
		basket: store,
		calc:   calc,
		clock:  clock,
		log:    log,
	}
}

// Basket returns the basket store owned by this session
func (c *Coordinator) Basket() *basket.Store {
	return c.basket
}

// Loaded returns the currently loaded order, or nil when composing fresh
func (c *Coordinator) Loaded() *order.Order {
	return c.loaded
}

// Changes reconciles the live basket against the loaded order's baseline
func (c *Coordinator) Changes() order.ChangeSet {
	return c.basket.Changes()
}

// EffectiveStatus derives the time-dependent status of the given order at
// the current instant: a placed order reads as locked past its edit cutoff
// and as completed once its pickup has passed.
func (c *Coordinator) EffectiveStatus(o *order.Order) (order.Status, error) {
	cutoff, err := c.calc.EditCutoff(o.PickupAt)
	if err != nil {
		return "", err
	}
	return o.EffectiveStatus(c.clock.Now(), cutoff), nil
}

// LoadOpenOrder queries the order store for the most recent open order among
// the candidate ids and loads its line items into the basket, retaining them
// as the reconciliation baseline. An order is open while its stored status is
// non-terminal and its pickup has not passed. Returns nil when no open order
// exists; that is not an error.
func (c *Coordinator) LoadOpenOrder(ctx context.Context, candidateIDs []uuid.UUID) (*order.Order, error) {
	now := c.clock.Now()

	var open []*order.Order
	for _, id := range candidateIDs {
		o, err := c.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		cutoff, err := c.calc.EditCutoff(o.PickupAt)
		if err != nil {
			return nil, err
		}
		if o.EffectiveStatus(now, cutoff).IsTerminal() {
			continue
		}
		open = append(open, o)
	}
	if len(open) == 0 {
		return nil, nil
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	candidate := open[0]

	// Apply nothing when the caller has already gone away: the load either
	// takes full effect or none.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.basket.LoadFrom(candidate.Items, candidate.ID.String()); err != nil {
		return nil, err
	}
	c.loaded = candidate

	c.log.Info("open order loaded",
		zap.String("order_id", candidate.ID.String()),
		zap.Time("pickup_at", candidate.PickupAt),
		zap.Int("items", candidate.ItemCount()),
	)
	return candidate, nil
}

// CommitResult carries the outcome of a successful commit
type CommitResult struct {
	Order   *order.Order
	Cycle   schedule.PickupCycle
	Changes order.ChangeSet
}

// AttemptCommit validates the edit window and persists the current basket as
// an order. "now" is read exactly once so the cutoff guard and the write
// cannot disagree about the time. A failed commit leaves the basket exactly
// as the user left it.
func (c *Coordinator) AttemptCommit(ctx context.Context, buyerID uuid.UUID) (*CommitResult, error) {
	now := c.clock.Now()

	snapshot := c.basket.Current()
	if snapshot.IsEmpty() {
		return nil, shared.ErrEmptyBasket
	}
	changes := c.basket.Changes()

	var target *order.Order
	var cycle schedule.PickupCycle
	if c.loaded != nil {
		cutoff, err := c.calc.EditCutoff(c.loaded.PickupAt)
		if err != nil {
			return nil, err
		}
		if now.After(cutoff) {
			return nil, shared.ErrEditWindowClosed
		}
		cycle = schedule.PickupCycle{PickupAt: c.loaded.PickupAt, EditCutoffAt: cutoff}

		target = c.loaded
		if err := target.ReplaceItems(snapshot, now); err != nil {
			return nil, err
		}
	} else {
		cycle = c.calc.NextCycle(now)

		o, err := order.New(buyerID, cycle.PickupAt, snapshot, now)
		if err != nil {
			return nil, err
		}
		if err := o.Place(now); err != nil {
			return nil, err
		}
		target = o
	}

	if err := c.repo.Save(ctx, target); err != nil {
		c.log.Warn("commit failed, basket left untouched",
			zap.String("order_id", target.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	c.basket.Rebase(snapshot, target.ID.String())
	c.loaded = target

	c.log.Info("order committed",
		zap.String("order_id", target.ID.String()),
		zap.Time("pickup_at", target.PickupAt),
		zap.Int("items", target.ItemCount()),
		zap.Bool("had_changes", changes.HasChanges()),
	)
	return &CommitResult{Order: target, Cycle: cycle, Changes: changes}, nil
}

// Cancel cancels the loaded order by explicit user action and clears the
// basket on success
func (c *Coordinator) Cancel(ctx context.Context) error {
	if c.loaded == nil {
		return shared.NewDomainError("INVALID_STATE", "No order is loaded")
	}

	now := c.clock.Now()
	if err := c.loaded.Cancel(now); err != nil {
		return err
	}
	if err := c.repo.Save(ctx, c.loaded); err != nil {
		return err
	}

	c.log.Info("order cancelled", zap.String("order_id", c.loaded.ID.String()))
	c.loaded = nil
	c.basket.Discard()
	return nil
}

// Deadline describes the cycle the session is editing against, for the
// presentation layer
type Deadline struct {
	Cycle     schedule.PickupCycle
	CanEdit   bool
	Warning   schedule.WarningLevel
	Remaining schedule.Remaining
}

// CurrentDeadline surfaces schedule state for the loaded order, or for the
// next cycle when composing fresh
func (c *Coordinator) CurrentDeadline() (Deadline, error) {
	now := c.clock.Now()

	var cycle schedule.PickupCycle
	if c.loaded != nil {
		cutoff, err := c.calc.EditCutoff(c.loaded.PickupAt)
		if err != nil {
			return Deadline{}, err
		}
		cycle = schedule.PickupCycle{PickupAt: c.loaded.PickupAt, EditCutoffAt: cutoff}
	} else {
		cycle = c.calc.NextCycle(now)
	}

	canEdit, err := c.calc.CanEdit(cycle.PickupAt, now)
	if err != nil {
		return Deadline{}, err
	}
	warning, err := c.calc.WarningLevel(cycle.PickupAt, now)
	if err != nil {
		return Deadline{}, err
	}
	remaining, err := c.calc.TimeRemaining(cycle.PickupAt, now)
	if err != nil {
		return Deadline{}, err
	}

	return Deadline{
		Cycle:     cycle,
		CanEdit:   canEdit,
		Warning:   warning,
		Remaining: remaining,
	}, nil
}

// AutoArchiveStaleEmptyOrders completes every candidate order whose pickup
// has passed, whose items sum to zero, and whose status is not yet terminal.
// Orders with any remaining value are left untouched regardless of age, so
// history stays intact for the seller. Per-order store failures are logged
// and skipped; the next sweep retries them.
func (c *Coordinator) AutoArchiveStaleEmptyOrders(ctx context.Context, candidateIDs []uuid.UUID) (int, error) {
	now := c.clock.Now()

	archived := 0
	for _, id := range candidateIDs {
		if err := ctx.Err(); err != nil {
			return archived, err
		}

		o, err := c.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			c.log.Warn("archive sweep: load failed", zap.String("order_id", id.String()), zap.Error(err))
			continue
		}
		if o.IsTerminal() || o.PickupAt.After(now) || !o.IsEmpty() {
			continue
		}

		if err := o.Complete(now); err != nil {
			c.log.Warn("archive sweep: cannot complete", zap.String("order_id", id.String()), zap.Error(err))
			continue
		}
		if err := c.repo.Save(ctx, o); err != nil {
			c.log.Warn("archive sweep: save failed", zap.String("order_id", id.String()), zap.Error(err))
			continue
		}
		archived++
		c.log.Info("stale empty order archived", zap.String("order_id", id.String()))
	}
	return archived, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rmarch/car-config/internal/core/catalog"
	"github.com/rmarch/car-config/internal/core/domain"
	"github.com/rmarch/car-config/internal/core/engine"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/port"
)

// ConfigService is the configuration mutator. Every mutation re-validates
// the whole resulting accessory set against a snapshot read inside the same
// transaction that writes, so a client's earlier optimistic check can never
// be the deciding one.
type ConfigService struct {
	cat   *catalog.Catalog
	store port.Store
	cache port.AvailabilityCache
	log   *logger.Logger
}

func NewConfigService(cat *catalog.Catalog, store port.Store, cache port.AvailabilityCache, log *logger.Logger) *ConfigService {
	return &ConfigService{
		cat:   cat,
		store: store,
		cache: cache,
		log:   log.With("service", "config"),
	}
}

// LoadCatalog reads model and accessory definitions from the store and
// builds the rule catalog, failing on any integrity fault.
func LoadCatalog(ctx context.Context, store port.Store) (*catalog.Catalog, error) {
	var (
		models      []domain.Model
		accessories []domain.Accessory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		models, err = store.Models(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		accessories, err = store.Accessories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog.New(models, accessories)
}

func (s *ConfigService) Catalog() *catalog.Catalog {
	return s.cat
}

// Availability serves the advisory fast path: a cached snapshot when fresh
// enough, the store otherwise. Values from here feed pre-submit checks
// only, never commits.
func (s *ConfigService) Availability(ctx context.Context) (map[string]int, error) {
	if snap, ok, err := s.cache.Snapshot(ctx); err == nil && ok {
		return snap, nil
	} else if err != nil {
		s.log.Warn("availability cache read failed", "error", err)
	}

	snap, err := s.store.Availability(ctx)
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}
	if err := s.cache.StoreSnapshot(ctx, snap); err != nil {
		s.log.Warn("availability cache write failed", "error", err)
	}
	return snap, nil
}

// Configuration returns the user's configuration, nil when none exists.
func (s *ConfigService) Configuration(ctx context.Context, owner int64) (*domain.Configuration, error) {
	return s.store.ConfigurationByOwner(ctx, owner)
}

// Advise runs the same validation engine the commit path uses, against the
// advisory availability snapshot, for instant pre-submit feedback. The
// result is never an enforcement decision.
func (s *ConfigService) Advise(ctx context.Context, owner int64, accessoryID string, removal bool) ([]domain.Violation, error) {
	cfg, err := s.store.ConfigurationByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNoConfiguration
	}

	if removal {
		return engine.CheckRemoval(s.cat, *cfg, accessoryID), nil
	}

	avail, err := s.Availability(ctx)
	if err != nil {
		return nil, err
	}
	snap := engine.Snapshot{Availability: avail, Held: asSet(cfg.Accessories)}
	return engine.CheckAddition(s.cat, snap, *cfg, accessoryID)
}

// Create commits a brand-new configuration as one unit. Fails when the user
// already has one; on violations nothing is written and every reason is
// reported.
func (s *ConfigService) Create(ctx context.Context, owner int64, requestID string, modelID string, accessories []string) error {
	if err := s.claimRequest(ctx, "create", owner, requestID); err != nil {
		return err
	}

	candidate := domain.Configuration{
		Owner:       owner,
		ModelID:     modelID,
		Accessories: dedupe(accessories),
	}

	err := s.store.WithinTx(ctx, func(tx port.StoreTx) error {
		existing, err := tx.ConfigurationByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrConfigurationExists
		}

		avail, err := tx.Availability(ctx)
		if err != nil {
			return err
		}
		violations, err := engine.ValidateConfiguration(s.cat, engine.Snapshot{Availability: avail}, candidate)
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			return &domain.ValidationError{Violations: violations}
		}
		return tx.InsertConfiguration(ctx, candidate)
	})
	if err != nil {
		return s.reportCommit(err, "create", owner)
	}

	s.invalidateSnapshot(ctx)
	s.log.Info("configuration created", "owner", owner, "model", modelID, "accessories", len(candidate.Accessories))
	return nil
}

// Edit applies an add/remove delta. The entire resulting set is
// re-validated against a fresh in-transaction snapshot: removals can break
// mandatory links the additions never touched, and additions race with
// concurrent stock consumption.
func (s *ConfigService) Edit(ctx context.Context, owner int64, requestID string, add, remove []string) error {
	if err := s.claimRequest(ctx, "edit", owner, requestID); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx port.StoreTx) error {
		current, err := tx.ConfigurationByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNoConfiguration
		}

		removeSet := asSet(remove)
		resulting := make([]string, 0, len(current.Accessories)+len(add))
		for _, id := range current.Accessories {
			if !removeSet[id] {
				resulting = append(resulting, id)
			}
		}
		held := asSet(current.Accessories)
		toAdd := make([]string, 0, len(add))
		for _, id := range dedupe(add) {
			if held[id] || removeSet[id] {
				continue
			}
			resulting = append(resulting, id)
			toAdd = append(toAdd, id)
		}

		avail, err := tx.Availability(ctx)
		if err != nil {
			return err
		}
		candidate := domain.Configuration{Owner: owner, ModelID: current.ModelID, Accessories: resulting}
		violations, err := engine.ValidateConfiguration(s.cat, engine.Snapshot{Availability: avail, Held: held}, candidate)
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			return &domain.ValidationError{Violations: violations}
		}

		toRemove := make([]string, 0, len(remove))
		for _, id := range dedupe(remove) {
			if held[id] {
				toRemove = append(toRemove, id)
			}
		}
		if err := tx.AddSelections(ctx, owner, toAdd); err != nil {
			return err
		}
		return tx.RemoveSelections(ctx, owner, toRemove)
	})
	if err != nil {
		return s.reportCommit(err, "edit", owner)
	}

	s.invalidateSnapshot(ctx)
	s.log.Info("configuration edited", "owner", owner, "added", len(add), "removed", len(remove))
	return nil
}

// Delete clears the user's configuration and releases its inventory claim.
// Deleting an absent configuration is a no-op, not an error.
func (s *ConfigService) Delete(ctx context.Context, owner int64) error {
	err := s.store.WithinTx(ctx, func(tx port.StoreTx) error {
		return tx.DeleteConfiguration(ctx, owner)
	})
	if err != nil {
		return s.reportCommit(err, "delete", owner)
	}

	s.invalidateSnapshot(ctx)
	s.log.Info("configuration deleted", "owner", owner)
	return nil
}

// claimRequest enforces request-level idempotency. An empty id gets a fresh
// one, which claims trivially.
func (s *ConfigService) claimRequest(ctx context.Context, op string, owner int64, requestID string) error {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ok, err := s.cache.SetIdempotency(ctx, fmt.Sprintf("%s:%d:%s", op, owner, requestID))
	if err != nil {
		// The cache is an optimization; the transactional commit stays
		// safe without it.
		s.log.Warn("idempotency check failed", "op", op, "owner", owner, "error", err)
		return nil
	}
	if !ok {
		return domain.ErrDuplicateRequest
	}
	return nil
}

func (s *ConfigService) reportCommit(err error, op string, owner int64) error {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		s.log.Debug("commit rejected", "op", op, "owner", owner, "violations", len(vErr.Violations))
	case errors.Is(err, domain.ErrConcurrencyConflict):
		// Distinct log line: conflicts are the capacity-planning signal.
		s.log.Warn("commit lost to concurrent transaction", "op", op, "owner", owner)
	case errors.Is(err, domain.ErrConfigurationExists),
		errors.Is(err, domain.ErrNoConfiguration):
	default:
		s.log.Error("commit failed", "op", op, "owner", owner, "error", err)
	}
	return err
}

func (s *ConfigService) invalidateSnapshot(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("availability cache invalidation failed", "error", err)
	}
}

func asSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

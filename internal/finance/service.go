package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RepositoryPort defines data access for the engine: a read-only snapshot of
// the event streams plus the explicit, caller-driven write-back of derived
// values. The write-back is last-write-wins; no transactional guarantee.
type RepositoryPort interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveRecalculatedDebts(ctx context.Context, debts []RecalculatedDebt) error
	SaveCorrections(ctx context.Context, corrections []Correction) error
}

// Service runs the engine over fresh snapshots and caches the derived
// projections. The engine itself stays pure; all I/O lives here.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	engine *Engine
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds the finance service. Cache may be nil, in which case every
// read recomputes from a fresh snapshot.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		engine: NewEngine(nil),
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// compute loads a snapshot and runs one engine pass, surfacing diagnostic
// conditions in the log without ever failing the caller's reload flow.
func (s *Service) compute(ctx context.Context) (Result, error) {
	snapshot, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	result := s.engine.Recalculate(*snapshot)
	result.Sheet.GeneratedAt = s.clock()

	if !result.Balanced() {
		s.logger.Warn("balance sheet out of tolerance",
			slog.Float64("total_assets", result.Sheet.TotalAssets),
			slog.Float64("total_passives", result.Sheet.TotalPassives),
		)
	}
	if result.UnreliableInputs > 0 {
		s.logger.Warn("unreliable inputs degraded to zero",
			slog.Int("count", result.UnreliableInputs),
		)
	}
	return result, nil
}

// BalanceSheet returns the derived sheet, served from cache when possible.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		result, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		return result.Sheet, nil
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return BalanceSheet{}, err
		}
		return value.(BalanceSheet), nil
	}
	key, err := s.cache.BuildKey(ctx, keyBalanceSheet())
	if err != nil {
		return BalanceSheet{}, err
	}
	var sheet BalanceSheet
	if err := s.cache.FetchJSON(ctx, key, &sheet, loader); err != nil {
		return BalanceSheet{}, err
	}
	return sheet, nil
}

// Debts returns recomputed counterparty balances, optionally filtered by side.
func (s *Service) Debts(ctx context.Context, side DebtSide) ([]RecalculatedDebt, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		result, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		if side == "" {
			return result.Debts, nil
		}
		filtered := make([]RecalculatedDebt, 0, len(result.Debts))
		for _, d := range result.Debts {
			if d.Side == side {
				filtered = append(filtered, d)
			}
		}
		return filtered, nil
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]RecalculatedDebt), nil
	}
	cacheSide := side
	if cacheSide == "" {
		cacheSide = "all"
	}
	key, err := s.cache.BuildKey(ctx, keyDebts(cacheSide))
	if err != nil {
		return nil, err
	}
	var debts []RecalculatedDebt
	if err := s.cache.FetchJSON(ctx, key, &debts, loader); err != nil {
		return nil, err
	}
	return debts, nil
}

// Corrections returns the correction records of a fresh engine pass.
func (s *Service) Corrections(ctx context.Context) ([]Correction, error) {
	result, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	return result.Corrections, nil
}

// Recalculate runs a full engine pass. When persist is set, the recomputed
// debts are written back to the counterparty store, the corrections are
// appended for audit display, and the cache version is bumped so subsequent
// reads see the fresh projection.
func (s *Service) Recalculate(ctx context.Context, persist bool) (Result, error) {
	result, err := s.compute(ctx)
	if err != nil {
		return Result{}, err
	}
	if !persist {
		return result, nil
	}
	if err := s.repo.SaveRecalculatedDebts(ctx, result.Debts); err != nil {
		return Result{}, fmt.Errorf("finance: save debts: %w", err)
	}
	if len(result.Corrections) > 0 {
		if err := s.repo.SaveCorrections(ctx, result.Corrections); err != nil {
			return Result{}, fmt.Errorf("finance: save corrections: %w", err)
		}
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed", slog.Any("error", err))
	}
	return result, nil
}

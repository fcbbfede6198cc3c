package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// CachePruner deletes embedding cache rows written before cutoff
type CachePruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ScratchPruner deletes scratch objects last modified before olderThan
type ScratchPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// MaintenanceConfig sets what gets pruned. A nil pruner or a non-positive
// TTL disables that half.
type MaintenanceConfig struct {
	Cache      CachePruner
	CacheTTL   time.Duration
	Scratch    ScratchPruner
	ScratchTTL time.Duration
}

// MaintenanceProcessor expires embedding cache rows and scratch objects
type MaintenanceProcessor struct {
	cfg MaintenanceConfig
	now func() time.Time
}

func NewMaintenanceProcessor(cfg MaintenanceConfig) *MaintenanceProcessor {
	return &MaintenanceProcessor{cfg: cfg, now: time.Now}
}

// ProcessJobs runs both prunes; a failure in one does not skip the other
func (p *MaintenanceProcessor) ProcessJobs(ctx context.Context) error {
	now := p.now()
	var errs []error

	if p.cfg.Cache != nil && p.cfg.CacheTTL > 0 {
		n, err := p.cfg.Cache.PruneOlderThan(ctx, now.Add(-p.cfg.CacheTTL))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to prune embedding cache: %w", err))
		} else if n > 0 {
			log.Printf("[maintenance] pruned %d embedding cache entries", n)
		}
	}

	if p.cfg.Scratch != nil && p.cfg.ScratchTTL > 0 {
		n, err := p.cfg.Scratch.Prune(ctx, now.Add(-p.cfg.ScratchTTL))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to prune scratch store: %w", err))
		} else if n > 0 {
			log.Printf("[maintenance] pruned %d scratch objects", n)
		}
	}

	return errors.Join(errs...)
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketday/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CandidateSource supplies the order ids a sweep should inspect
type CandidateSource interface {
	StaleOrderIDs(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}

// Archiver applies the auto-archival rule to a batch of candidates
type Archiver interface {
	AutoArchiveStaleEmptyOrders(ctx context.Context, candidateIDs []uuid.UUID) (int, error)
}

// ArchiveSweeper periodically completes stale empty orders so abandoned
// drafts stop cluttering the active-orders view. It runs one sweep at
// startup and then on every tick until stopped.
type ArchiveSweeper struct {
	source   CandidateSource
	archiver Archiver
	clock    shared.Clock
	interval time.Duration
	logger   *zap.Logger

	stopChan  chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewArchiveSweeper creates an archive sweeper. A nil logger falls back to a no-op.
func NewArchiveSweeper(source CandidateSource, archiver Archiver, clock shared.Clock, interval time.Duration, logger *zap.Logger) *ArchiveSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveSweeper{
		source:   source,
		archiver: archiver,
		clock:    clock,
		interval: interval,
		logger:   logger.Named("sweeper"),
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop. Safe to call once.
func (s *ArchiveSweeper) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.loop()
		s.logger.Info("archive sweeper started", zap.Duration("interval", s.interval))
	})
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish
func (s *ArchiveSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("archive sweeper stopped")
	})
}

// loop runs sweeps until stopped
func (s *ArchiveSweeper) loop() {
	defer s.wg.Done()

	s.Sweep(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep runs one archive pass over the current stale candidates
func (s *ArchiveSweeper) Sweep(ctx context.Context) {
	ids, err := s.source.StaleOrderIDs(ctx, s.clock.Now())
	if err != nil {
		s.logger.Warn("failed to gather sweep candidates", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	archived, err := s.archiver.AutoArchiveStaleEmptyOrders(ctx, ids)
	if err != nil {
		s.logger.Warn("archive sweep aborted", zap.Error(err))
		return
	}
	s.logger.Info("archive sweep complete",
		zap.Int("candidates", len(ids)),
		zap.Int("archived", archived),
	)
}

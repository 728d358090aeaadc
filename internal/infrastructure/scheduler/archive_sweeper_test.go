package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time           { return c.now }
func (c *fixedClock) Location() *time.Location { return c.now.Location() }

type stubSource struct {
	mu     sync.Mutex
	ids    []uuid.UUID
	err    error
	before time.Time
}

func (s *stubSource) StaleOrderIDs(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.before = before
	return s.ids, s.err
}

type stubArchiver struct {
	mu       sync.Mutex
	calls    int
	received []uuid.UUID
	err      error
}

func (a *stubArchiver) AutoArchiveStaleEmptyOrders(ctx context.Context, candidateIDs []uuid.UUID) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.received = candidateIDs
	if a.err != nil {
		return 0, a.err
	}
	return len(candidateIDs), nil
}

func TestArchiveSweeper_SweepPassesCandidates(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	source := &stubSource{ids: ids}
	archiver := &stubArchiver{}

	s := NewArchiveSweeper(source, archiver, &fixedClock{now: now}, time.Hour, nil)
	s.Sweep(context.Background())

	assert.Equal(t, 1, archiver.calls)
	assert.Equal(t, ids, archiver.received)
	assert.Equal(t, now, source.before, "sweep must gather candidates against the clock's now")
}

func TestArchiveSweeper_NoCandidatesSkipsArchiver(t *testing.T) {
	source := &stubSource{}
	archiver := &stubArchiver{}

	s := NewArchiveSweeper(source, archiver, &fixedClock{now: time.Now()}, time.Hour, nil)
	s.Sweep(context.Background())

	assert.Zero(t, archiver.calls)
}

func TestArchiveSweeper_SourceFailureSkipsArchiver(t *testing.T) {
	source := &stubSource{err: errors.New("store down")}
	archiver := &stubArchiver{}

	s := NewArchiveSweeper(source, archiver, &fixedClock{now: time.Now()}, time.Hour, nil)
	s.Sweep(context.Background())

	assert.Zero(t, archiver.calls)
}

func TestArchiveSweeper_StartRunsInitialSweepAndStops(t *testing.T) {
	source := &stubSource{ids: []uuid.UUID{uuid.New()}}
	archiver := &stubArchiver{}

	s := NewArchiveSweeper(source, archiver, &fixedClock{now: time.Now()}, time.Hour, nil)
	s.Start()

	require.Eventually(t, func() bool {
		archiver.mu.Lock()
		defer archiver.mu.Unlock()
		return archiver.calls >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	// stopping twice is safe
	s.Stop()
}

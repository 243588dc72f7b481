package pulse

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/CodyCMAC/cmac-jobforge/internal/feed"
	"github.com/CodyCMAC/cmac-jobforge/pkg/models"
	"github.com/CodyCMAC/cmac-jobforge/pkg/repository"
)

// Entry is one feed line ready to render: the stored activity row plus its
// glyph and hot-job flag.
type Entry struct {
	models.Activity
	Glyph Glyph `json:"glyph"`
	Hot   bool  `json:"hot"`
}

// Stats are the dashboard headline numbers.
type Stats struct {
	UnactionedLeads int64                      `json:"unactioned_leads"`
	JobsByStatus    map[models.JobStatus]int64 `json:"jobs_by_status"`
}

// Snapshot is the cached pulse payload served to the dashboard.
type Snapshot struct {
	GeneratedAt int64    `json:"generated_at"`
	Entries     []Entry  `json:"entries"`
	HotJobIDs   []string `json:"hot_job_ids"`
	Stats       Stats    `json:"stats"`
}

// Refresher keeps a pulse snapshot warm. It recomputes on a fixed interval
// and whenever the feed bus reports a jobs or activity mutation, so the
// dashboard reads a cheap in-memory copy instead of querying per request.
type Refresher struct {
	activities repository.ActivityRepo
	jobs       repository.JobRepo
	bus        *feed.Bus
	logger     *slog.Logger
	interval   time.Duration
	limit      int

	mu   sync.RWMutex
	snap Snapshot

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewRefresher(ar repository.ActivityRepo, jr repository.JobRepo, bus *feed.Bus, logger *slog.Logger, interval time.Duration, limit int) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if limit <= 0 {
		limit = 50
	}
	return &Refresher{
		activities: ar,
		jobs:       jr,
		bus:        bus,
		logger:     logger,
		interval:   interval,
		limit:      limit,
		stop:       make(chan struct{}),
	}
}

// Start primes the snapshot and launches the refresh goroutine.
func (r *Refresher) Start(ctx context.Context) {
	if err := r.refresh(ctx); err != nil {
		r.logger.Error("initial pulse refresh", "err", err)
	}

	events, cancel := r.bus.Subscribe(16)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.refresh(ctx); err != nil {
					r.logger.Error("pulse refresh", "err", err)
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !ev.Has(feed.KeyActivityFeed) && !ev.Has(feed.KeyJobs) {
					continue
				}
				if err := r.refresh(ctx); err != nil {
					r.logger.Error("pulse refresh", "err", err)
				}
			}
		}
	}()
}

// Stop signals the refresh goroutine to exit and waits for it.
func (r *Refresher) Stop() {
	close(r.stop)
	r.wg.Wait()
}

// Snapshot returns the latest cached payload.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Refresher) refresh(ctx context.Context) error {
	entries, err := r.activities.ListFeed(ctx, nil, r.limit)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	hot := HotJobIDs(entries, now)

	out := make([]Entry, len(entries))
	for i, a := range entries {
		out[i] = Entry{Activity: a, Glyph: GlyphFor(a.Type), Hot: hot[a.JobID]}
	}

	hotIDs := make([]string, 0, len(hot))
	for id := range hot {
		hotIDs = append(hotIDs, id)
	}

	counts, err := r.jobs.CountJobsByStatus(ctx)
	if err != nil {
		return err
	}

	snap := Snapshot{
		GeneratedAt: now.UnixMilli(),
		Entries:     out,
		HotJobIDs:   hotIDs,
		Stats: Stats{
			UnactionedLeads: counts[models.StatusNew],
			JobsByStatus:    counts,
		},
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	return nil
}

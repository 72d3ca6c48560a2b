package workers

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

const (
	DefaultSyncQueueSize = 100
	pushTimeout          = 10 * time.Second
)

var (
	syncJobsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_jobs_dropped_total",
		Help: "Remote push jobs dropped because the queue was full.",
	})

	syncPushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_push_failures_total",
		Help: "Remote pushes that failed, by kind.",
	}, []string{"kind"})
)

type SyncJob struct {
	UserID     string
	Completion *domain.CompletionRecord
	History    *domain.StreakHistory
}

// SyncWorker pushes local writes to the remote replica. Pushes are best-effort:
// a full queue drops the job and a failed push is only logged, since the local
// store already holds the value.
type SyncWorker struct {
	completions domain.RemoteCompletionRepository
	histories   domain.RemoteStreakHistoryRepository
	limiter     *rate.Limiter
	jobs        chan SyncJob
	done        chan struct{}
}

// NewSyncWorker builds a worker. A non-positive perSecond disables throttling.
func NewSyncWorker(completions domain.RemoteCompletionRepository, histories domain.RemoteStreakHistoryRepository, queueSize int, perSecond float64) *SyncWorker {
	if queueSize <= 0 {
		queueSize = DefaultSyncQueueSize
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &SyncWorker{
		completions: completions,
		histories:   histories,
		limiter:     rate.NewLimiter(limit, 1),
		jobs:        make(chan SyncJob, queueSize),
		done:        make(chan struct{}),
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		log.Println("[SYNC] Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Printf("[SYNC] Worker shutting down, %d queued jobs left for the next session", len(w.jobs))
				return
			}
		}
	}()
}

// Done is closed once the worker loop has exited.
func (w *SyncWorker) Done() <-chan struct{} {
	return w.done
}

func (w *SyncWorker) enqueue(job SyncJob) {
	select {
	case w.jobs <- job:
	default:
		syncJobsDropped.Inc()
		log.Printf("[SYNC] Queue full! Dropping push for user %s", job.UserID)
	}
}

func (w *SyncWorker) EnqueueCompletion(rec *domain.CompletionRecord) {
	if w.completions == nil || rec == nil {
		return
	}
	copied := *rec
	w.enqueue(SyncJob{UserID: rec.UserID, Completion: &copied})
}

func (w *SyncWorker) EnqueueHistory(userID string, h *domain.StreakHistory) {
	if w.histories == nil || h == nil {
		return
	}
	copied := *h
	w.enqueue(SyncJob{UserID: userID, History: &copied})
}

func (w *SyncWorker) processJob(ctx context.Context, job SyncJob) {
	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	switch {
	case job.Completion != nil:
		if err := w.completions.Upsert(pushCtx, job.Completion); err != nil {
			syncPushFailures.WithLabelValues("completion").Inc()
			log.Printf("[SYNC] Failed to push completion %s: %v", job.Completion.Key(), err)
		}
	case job.History != nil:
		if err := w.histories.Save(pushCtx, job.UserID, job.History); err != nil {
			syncPushFailures.WithLabelValues("history").Inc()
			log.Printf("[SYNC] Failed to push streak history for user %s: %v", job.UserID, err)
		}
	}
}

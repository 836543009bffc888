package usecase

import (
	"context"
	"time"

	"notemate/utils"

	"github.com/rs/zerolog"
)

// Reconciler rewrites every active subject's counters from its notes,
// repairing drift left by partial failures.
type Reconciler struct {
	Subjects SubjectStore
	Interval time.Duration
}

func NewReconciler(subjects SubjectStore, interval time.Duration) *Reconciler {
	return &Reconciler{Subjects: subjects, Interval: interval}
}

// RunOnce reconciles each subject and reports how many succeeded. A failing
// subject is logged and skipped.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)
	ids, err := r.Subjects.ActiveIDs(ctx)
	if err != nil {
		utils.ReconcileRuns.WithLabelValues("error").Inc()
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		counters, err := r.Subjects.Reconcile(ctx, id)
		if err != nil {
			logger.Error().Err(err).Str("subject", id.Hex()).Msg("reconcile failed")
			continue
		}
		logger.Debug().
			Str("subject", id.Hex()).
			Int64("notesCount", counters.NotesCount).
			Float64("averageRating", counters.AverageRating).
			Int64("totalViews", counters.TotalViews).
			Msg("subject reconciled")
		done++
	}

	status := "success"
	if done < len(ids) {
		status = "partial"
	}
	utils.ReconcileRuns.WithLabelValues(status).Inc()
	return done, ctx.Err()
}

// Run reconciles every Interval until ctx is cancelled. A zero interval
// disables the loop.
func (r *Reconciler) Run(ctx context.Context) {
	if r.Interval <= 0 {
		return
	}
	logger := zerolog.Ctx(ctx)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("subject reconciliation pass failed")
				continue
			}
			logger.Info().Int("subjects", n).Msg("subject counters reconciled")
		}
	}
}

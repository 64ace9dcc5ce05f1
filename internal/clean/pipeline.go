package clean

import (
	"context"
	"log/slog"
	"time"

	"surveycli/internal/infrastructure"
)

// Stage is one step of the cleaning pipeline.
type Stage interface {
	// ID returns the short identifier used in logs.
	ID() string
	// Name returns the human-readable stage name.
	Name() string
	// Run executes the stage against the shared state.
	Run(ctx context.Context, state *State) error
}

// Runner executes stages sequentially, aborting on the first error.
type Runner struct {
	stages []Stage
}

// NewRunner builds a runner over the given stages in order.
func NewRunner(stages ...Stage) *Runner {
	return &Runner{stages: stages}
}

// Stages returns the standard stage order. Wave derivation runs after
// recoding so it sees each timestamp exactly once, and layout runs last so
// every earlier stage works with raw column names.
func Stages() []Stage {
	return []Stage{
		&ValidateStage{},
		&EncodeStage{},
		&RecodeStage{},
		&WaveStage{},
		&LayoutStage{},
	}
}

// Run executes every stage against the state.
func (r *Runner) Run(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerWithContext(ctx)
	runStart := time.Now()

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		stageStart := time.Now()
		logger.InfoContext(ctx, "stage_start",
			slog.String("stage", stage.ID()),
			slog.Int("rows", state.Table.NumRows()))

		if err := stage.Run(ctx, state); err != nil {
			logger.ErrorContext(ctx, "stage_error",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			return err
		}

		logger.InfoContext(ctx, "stage_complete",
			slog.String("stage", stage.ID()),
			slog.Duration("duration", time.Since(stageStart)),
			slog.Int("rows", state.Table.NumRows()))
	}

	logger.InfoContext(ctx, "pipeline_complete",
		slog.Duration("duration", time.Since(runStart)),
		slog.Int("rows_loaded", state.Stats.RowsLoaded),
		slog.Int("rows_rejected", state.Stats.RowsRejected),
		slog.Int("rows_clean", state.Stats.RowsClean))
	return nil
}

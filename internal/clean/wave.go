package clean

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surveycli/internal/config"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
)

// WaveStage derives the fieldwork wave for every row: wave 1 is the week
// starting on the survey start date, and each later week increments it.
// Completions before the start date abort the run rather than being
// clamped into wave 1.
type WaveStage struct{}

func (s *WaveStage) ID() string   { return "wave" }
func (s *WaveStage) Name() string { return "Derive waves" }

func (s *WaveStage) Run(ctx context.Context, state *State) error {
	waveQ, ok := state.Frame.WaveQuestion()
	if !ok {
		return nil
	}
	tsQ, ok := state.Frame.TimestampQuestion()
	if !ok {
		return errors.NewCodeframeError("wave variable declared without a timestamp question", nil)
	}

	t := state.Table
	if err := t.AddColumn(waveQ.Variable, dataset.Missing()); err != nil {
		return errors.NewCodeframeError(fmt.Sprintf("cannot add %s column", waveQ.Variable), err)
	}

	start := civilDate(state.Start)
	for i := 0; i < t.NumRows(); i++ {
		v, ok := t.Value(i, tsQ.Column)
		if !ok {
			return errors.NewCodeframeError(
				fmt.Sprintf("question %s reads column %q which the table does not hold", tsQ.Variable, tsQ.Column), nil)
		}
		if v.IsMissing() {
			return errors.NewLoadError("completion timestamp is missing", nil).
				WithContext("respondent_id", state.RespondentID(t, i)).
				WithContext("row", t.SourceRow(i))
		}

		ts, err := ParseCompletedDate(v.Str)
		if err != nil {
			return errors.NewLoadError(fmt.Sprintf("cannot parse completion timestamp %q", v.Str), err).
				WithContext("respondent_id", state.RespondentID(t, i)).
				WithContext("row", t.SourceRow(i))
		}

		completed := civilDate(ts)
		if completed.Before(start) {
			return errors.NewDateOrderError(state.RespondentID(t, i), completed, start).
				WithContext("row", t.SourceRow(i))
		}

		wave := Wave(start, completed)
		if err := t.Set(i, waveQ.Variable, dataset.Int(wave)); err != nil {
			return errors.NewCodeframeError(fmt.Sprintf("cannot set %s", waveQ.Variable), err)
		}
		state.Stats.WaveCounts[wave]++
	}
	return nil
}

// Wave returns the one-indexed weekly bucket of a completion date relative
// to the survey start. Both arguments must be civil dates at midnight UTC,
// with completed on or after start.
func Wave(start, completed time.Time) int {
	days := int(completed.Sub(start).Hours()) / 24
	return days/7 + 1
}

// ParseCompletedDate parses a raw completion timestamp against the accepted
// layouts.
func ParseCompletedDate(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	for _, layout := range config.CompletedDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no accepted layout matches %q", raw)
}

// civilDate truncates a timestamp to its date at midnight UTC.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Package log provides structured step-timing diagnostics for the
// ledger's per-slot step loop, logged via zerolog.
package log

import (
	"time"

	"github.com/rs/zerolog/log"
)

// StepLogger times each named stage of one RunStep call and emits a
// zerolog summary on Finish, mirroring a pipeline step logger but with
// the per-character spinner/progress-bar rendering dropped — this runs
// headless inside a service process, never attached to a terminal.
type StepLogger struct {
	slot      uint64
	stages    []string
	started   map[string]time.Time
	durations map[string]time.Duration
	current   string
	runStart  time.Time
}

// NewStepLogger begins timing a step for the given slot. stages names
// the ordered stage sequence (expire, antimev, ratelimit, priority,
// route, funding, liquidation, chain) purely for the final summary's ordering
// — StartStep accepts any name, known or not.
func NewStepLogger(slot uint64, stages []string) *StepLogger {
	return &StepLogger{
		slot:      slot,
		stages:    stages,
		started:   make(map[string]time.Time, len(stages)),
		durations: make(map[string]time.Duration, len(stages)),
		runStart:  time.Now(),
	}
}

// StartStep records the start of a named stage, closing out the
// previous stage's duration if one was open.
func (sl *StepLogger) StartStep(stage string) {
	now := time.Now()
	if sl.current != "" {
		sl.durations[sl.current] = now.Sub(sl.started[sl.current])
	}
	sl.current = stage
	sl.started[stage] = now
	log.Debug().Uint64("slot", sl.slot).Str("stage", stage).Msg("step stage starting")
}

// CompleteStep closes out the current stage's duration without
// starting a new one (used for the final stage of a step).
func (sl *StepLogger) CompleteStep() {
	if sl.current == "" {
		return
	}
	sl.durations[sl.current] = time.Since(sl.started[sl.current])
	log.Debug().
		Uint64("slot", sl.slot).
		Str("stage", sl.current).
		Dur("duration", sl.durations[sl.current]).
		Msg("step stage completed")
	sl.current = ""
}

// Finish logs the full per-stage timing breakdown for the step at
// info level — called once RunStep returns successfully.
func (sl *StepLogger) Finish() {
	sl.CompleteStep()
	total := time.Since(sl.runStart)
	evt := log.Info().Uint64("slot", sl.slot).Dur("total", total)
	for _, stage := range sl.stages {
		if d, ok := sl.durations[stage]; ok {
			evt = evt.Dur(stage, d)
		}
	}
	evt.Msg("step completed")
}

// Fail logs the stage at which the step aborted along with the error
// that caused it — called from RunStep's early-return error paths.
func (sl *StepLogger) Fail(err error) {
	log.Error().
		Uint64("slot", sl.slot).
		Str("failed_stage", sl.current).
		Err(err).
		Msg("step aborted")
}

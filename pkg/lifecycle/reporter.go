package lifecycle

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/certkeep/certkeep/pkg/log"
	"github.com/certkeep/certkeep/pkg/metrics"
	"github.com/certkeep/certkeep/pkg/store"
	"github.com/certkeep/certkeep/pkg/types"
)

// StatusReporter is the outward status channel: every report is logged,
// reflected in the status gauge, and persisted so `certkeep status` can
// show it later.
type StatusReporter struct {
	store  store.Store
	logger zerolog.Logger
}

// NewStatusReporter creates a reporter persisting to the given store.
func NewStatusReporter(st store.Store) *StatusReporter {
	return &StatusReporter{
		store:  st,
		logger: log.WithComponent("status"),
	}
}

// Report records a status. Blocked is logged at error level, waiting
// and active at info.
func (r *StatusReporter) Report(state types.StatusState, message string) {
	st := &types.Status{
		State:      state,
		Message:    message,
		ReportedAt: time.Now(),
	}
	if err := r.store.SetLastStatus(st); err != nil {
		r.logger.Error().Err(err).Msg("failed to persist status")
	}
	metrics.SetStatus(string(state))

	event := r.logger.Info()
	if state == types.StatusBlocked {
		event = r.logger.Error()
	}
	event.Str("state", string(state)).Msg(message)
}

package services

import (
	"context"
	"time"

	"zarafe/internal/eventbus"
	"zarafe/internal/logger"
	"zarafe/internal/store"
)

const statusWriteTimeout = 5 * time.Second

// StatusRecorder persists the saved state of recordings whenever a session is saved.
type StatusRecorder struct {
	store *store.Store
	log   logger.Logger
}

func NewStatusRecorder(st *store.Store, log logger.Logger) *StatusRecorder {
	return &StatusRecorder{store: st, log: log}
}

func (r *StatusRecorder) GetID() string {
	return "status-recorder"
}

// Handle implements eventbus.EventHandler.
func (r *StatusRecorder) Handle(ev eventbus.Event) {
	if ev.Type != eventbus.SessionSaved || r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if err := r.store.MarkSaved(ctx, ev.Recording, ev.SessionID, ev.Count, ev.Complete); err != nil {
		r.log.Error("StatusRecorder", err, map[string]interface{}{"recording": ev.Recording})
		return
	}
	r.log.Debug("StatusRecorder", "recording status stored", map[string]interface{}{
		"recording": ev.Recording,
		"events":    ev.Count,
	})
}

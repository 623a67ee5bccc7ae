package wizard

import (
	"sync"
	"time"

	"membership/internal/registration/address"
	"membership/internal/registration/models"
)

// Session owns one user's draft while the wizard is open. All fields are
// guarded by mu; remote calls run with mu released.
type Session struct {
	key string

	mu sync.Mutex
	// draft keeps pending raw files, which the store never sees.
	draft  models.Draft
	notice *models.Notice
	// inFlight is set while a forward transition awaits remote checks.
	inFlight bool
	// submitting is set while the submission assembler owns the draft.
	submitting bool
	// attempt changes whenever the user moves, so a late check result can
	// tell it no longer applies.
	attempt    uint64
	reconciled address.Attempts
	lastSeen   time.Time
}

func newSession(key string, d models.Draft, notice *models.Notice, now time.Time) *Session {
	return &Session{
		key:        key,
		draft:      d,
		notice:     notice,
		reconciled: make(address.Attempts),
		lastSeen:   now,
	}
}

// busy reports the error a mutation must fail with, if any.
func (s *Session) busy() error {
	if s.submitting {
		return models.ErrSubmissionBusy
	}
	if s.inFlight {
		return models.ErrTransitionPending
	}
	return nil
}

package wizard

import (
	"membership/internal/registration/models"
)

// StepInfo describes one step of the active topology.
type StepInfo struct {
	ID       models.StepID `json:"id"`
	Name     string        `json:"name"`
	Position int           `json:"position"`
}

// View is what the client renders. The password never leaves the server.
type View struct {
	Step           models.StepID      `json:"step"`
	StepName       string             `json:"stepName"`
	Position       int                `json:"position"`
	Total          int                `json:"total"`
	Steps          []StepInfo         `json:"steps"`
	Draft          models.Draft       `json:"draft"`
	Notice         *models.Notice     `json:"notice,omitempty"`
	PendingFiles   []models.FileField `json:"pendingFiles"`
	InFlight       bool               `json:"inFlight"`
	Submitting     bool               `json:"submitting"`
	PaymentEnabled bool               `json:"paymentEnabled"`
}

func buildView(t models.Topology, s *Session, paymentEnabled bool) View {
	d := s.draft.Clone()
	d.Personal.Password = ""

	steps := make([]StepInfo, 0, t.Len())
	for _, id := range t.Steps() {
		steps = append(steps, StepInfo{ID: id, Name: id.String(), Position: t.Position(id)})
	}
	pending := []models.FileField{}
	for _, f := range models.FileFields {
		if s.draft.Files.Get(f).State() == models.FilePending {
			pending = append(pending, f)
		}
	}
	return View{
		Step:           d.Step,
		StepName:       d.Step.String(),
		Position:       t.Position(d.Step),
		Total:          t.Len(),
		Steps:          steps,
		Draft:          d,
		Notice:         s.notice,
		PendingFiles:   pending,
		InFlight:       s.inFlight,
		Submitting:     s.submitting,
		PaymentEnabled: paymentEnabled,
	}
}

// SubmitResult is returned by Service.Submit.
type SubmitResult struct {
	Completed   bool   `json:"completed"`
	MemberID    string `json:"memberId,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	View        *View  `json:"view,omitempty"`
}

package audit

import "time"

// Action names a registration lifecycle event.
type Action string

const (
	ActionDraftStarted        Action = "draft_started"
	ActionDraftResumed        Action = "draft_resumed"
	ActionStepAdvanced        Action = "step_advanced"
	ActionStepRetreated       Action = "step_retreated"
	ActionSubmissionSucceeded Action = "submission_succeeded"
	ActionSubmissionFailed    Action = "submission_failed"
	ActionPaymentInitiated    Action = "payment_initiated"
	ActionDraftAbandoned      Action = "draft_abandoned"
)

// Event is emitted by the wizard at lifecycle boundaries. It never carries
// personal data beyond a masked phone number.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	SessionID string            `json:"session_id"`
	Action    Action            `json:"action"`
	Step      string            `json:"step,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

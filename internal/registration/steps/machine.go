// Package steps owns the wizard's step sequencing: which step follows which
// under the active feature flags and what each step must satisfy before the
// user may move on.
package steps

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"membership/internal/registration/models"
	"membership/internal/registration/ports"
	dErrors "membership/pkg/domain-errors"
)

// Collaborators are the remote checks some steps run after local validation.
type Collaborators struct {
	Phones    ports.PhoneRegistry
	Referrals ports.ReferralRegistry
	Verifier  ports.Verifier
}

// Input carries values a step consumes without storing them in the draft.
type Input struct {
	OTP string
}

// Machine validates steps and moves between them. It never mutates the
// draft it is given; Advance returns a normalized copy.
type Machine struct {
	topology models.Topology
	remote   Collaborators
	plans    map[string]struct{}
	validate *validator.Validate
	clock    func() time.Time
	logger   *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		m.clock = clock
	}
}

// WithPlans restricts the plan step to the given codes.
func WithPlans(codes ...string) Option {
	return func(m *Machine) {
		for _, c := range codes {
			if c != "" {
				m.plans[c] = struct{}{}
			}
		}
	}
}

func New(flags models.Flags, remote Collaborators, opts ...Option) *Machine {
	m := &Machine{
		topology: models.NewTopology(flags),
		remote:   remote,
		plans:    make(map[string]struct{}),
		validate: newValidator(),
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Topology() models.Topology { return m.topology }

// Advance validates current against d and, on success, returns the next step
// together with the normalized draft positioned on it. On failure the
// returned draft is d unchanged.
func (m *Machine) Advance(ctx context.Context, current models.StepID, d models.Draft, in Input) (models.StepID, models.Draft, error) {
	if !m.topology.Contains(current) {
		return current, d, models.ErrStepMismatch
	}
	if m.topology.IsTerminal(current) {
		return current, d, models.ErrSubmitRequired
	}

	next, err := m.Validate(current, d, in)
	if err != nil {
		return current, d, err
	}
	if err := m.check(ctx, current, next, in); err != nil {
		return current, d, err
	}

	to, _ := m.topology.Next(current)
	next.Step = to
	m.logger.DebugContext(ctx, "step advanced", "from", current.String(), "to", to.String())
	return to, next, nil
}

// Retreat returns the previous step present in the topology. It never fails
// and retreating from the first step stays there.
func (m *Machine) Retreat(current models.StepID) models.StepID {
	return m.topology.Prev(current)
}

// Clamp maps a persisted step onto the active topology.
func (m *Machine) Clamp(step models.StepID) models.StepID {
	return m.topology.Clamp(step)
}

// check runs the remote half of a step. Only called after local validation
// passed, so collaborators never see malformed input.
func (m *Machine) check(ctx context.Context, step models.StepID, d models.Draft, in Input) error {
	switch step {
	case models.StepPhone:
		exists, err := m.remote.Phones.PhoneExists(ctx, d.Phone)
		if err != nil {
			return networkFailure("phone_uniqueness", err)
		}
		if exists {
			return &models.ExistenceCheckFailure{Kind: models.CheckPhoneRegistered}
		}
		if m.topology.Contains(models.StepVerify) {
			if err := m.remote.Verifier.Send(ctx, d.Phone); err != nil {
				return networkFailure("otp_send", err)
			}
			m.logger.InfoContext(ctx, "verification code sent", "phone", models.MaskPhone(d.Phone))
		}
	case models.StepVerify:
		ok, err := m.remote.Verifier.Check(ctx, d.Phone, in.OTP)
		if err != nil {
			return networkFailure("otp_check", err)
		}
		if !ok {
			return &models.ExistenceCheckFailure{Kind: models.CheckOTPRejected}
		}
	case models.StepReferral:
		exists, err := m.remote.Referrals.ReferralExists(ctx, d.ReferralCode)
		if err != nil {
			return networkFailure("referral_lookup", err)
		}
		if !exists {
			return &models.ExistenceCheckFailure{Kind: models.CheckReferralNotFound}
		}
	}
	return nil
}

// networkFailure classifies a collaborator error. Throttling is the user's
// to wait out and keeps its own code.
func networkFailure(op string, err error) error {
	var nf *models.NetworkFailure
	if errors.As(err, &nf) || dErrors.HasCode(err, dErrors.CodeRateLimited) {
		return err
	}
	return &models.NetworkFailure{Op: op, Err: err}
}

// Package submission turns a completed draft into a registration: it uploads
// pending documents, assembles the finalize payload and hands it to either
// the member registry or the payment gateway.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"membership/internal/registration/metrics"
	"membership/internal/registration/models"
	"membership/internal/registration/ports"
	"membership/internal/registration/steps"
	dErrors "membership/pkg/domain-errors"
	"membership/pkg/requestcontext"
)

// Phase is where a submission currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseUploading
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseUploading:
		return "uploading_files"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "idle"
}

// DraftWriter is the part of the draft store submission needs.
type DraftWriter interface {
	Save(ctx context.Context, key string, d models.Draft) (time.Time, error)
	Clear(ctx context.Context, key string) error
}

// Collaborators are the remote services a submission talks to.
type Collaborators struct {
	Uploader  ports.Uploader
	Registrar ports.Registrar
	Payments  ports.PaymentGateway
}

// Outcome is the result of a successful submission: either a completed
// registration or a payment redirect.
type Outcome struct {
	Completed   bool
	MemberID    string
	RedirectURL string
	OrderID     string
}

// Assembler runs submissions. At most one submission per session key is in
// flight at a time.
type Assembler struct {
	machine        *steps.Machine
	drafts         DraftWriter
	remote         Collaborators
	paymentEnabled bool
	tracer         trace.Tracer
	metrics        *metrics.Metrics
	logger         *slog.Logger

	mu     sync.Mutex
	phases map[string]Phase
}

// Option configures an Assembler.
type Option func(*Assembler)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assembler) {
		a.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(a *Assembler) {
		a.tracer = tracer
	}
}

// WithPaymentEnabled routes submissions through the payment gateway instead
// of direct registration.
func WithPaymentEnabled(enabled bool) Option {
	return func(a *Assembler) {
		a.paymentEnabled = enabled
	}
}

func New(machine *steps.Machine, drafts DraftWriter, remote Collaborators, opts ...Option) *Assembler {
	a := &Assembler{
		machine: machine,
		drafts:  drafts,
		remote:  remote,
		tracer:  otel.Tracer("membership/registration/submission"),
		logger:  slog.Default(),
		phases:  make(map[string]Phase),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PaymentEnabled reports which finalize contract Submit uses.
func (a *Assembler) PaymentEnabled() bool { return a.paymentEnabled }

// Phase returns the phase of the submission running for key.
func (a *Assembler) Phase(key string) Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phases[key]
}

// Submit finalizes d. The returned draft carries any files resolved along
// the way, also on failure, so the caller's copy stays current and a retry
// re-uploads only what is still missing.
func (a *Assembler) Submit(ctx context.Context, key string, d models.Draft) (Outcome, models.Draft, error) {
	if !a.begin(key) {
		return Outcome{}, d, models.ErrSubmissionBusy
	}

	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "registration.submit",
		trace.WithAttributes(attribute.String("registration.mode", a.mode())))
	defer span.End()

	out, next, err := a.run(ctx, key, d)
	a.metrics.ObserveSubmitLatency(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		a.metrics.IncrementSubmission(a.mode(), "failed")
		a.end(key, PhaseFailed)
		return Outcome{}, next, err
	}

	outcome := "completed"
	if !out.Completed {
		outcome = "handoff"
	}
	a.metrics.IncrementSubmission(a.mode(), outcome)
	a.end(key, PhaseSucceeded)
	return out, next, nil
}

func (a *Assembler) run(ctx context.Context, key string, d models.Draft) (Outcome, models.Draft, error) {
	a.setPhase(key, PhaseValidating)
	next, err := a.validate(d)
	if err != nil {
		return Outcome{}, d, err
	}

	a.setPhase(key, PhaseUploading)
	next, err = a.uploadPending(ctx, key, next)
	if err != nil {
		return Outcome{}, next, err
	}

	a.setPhase(key, PhaseSubmitting)
	payload := BuildPayload(next, a.machine.Topology(), a.paymentEnabled)
	payload.Metadata = map[string]string{
		"submittedAt": requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	}
	if rid := requestcontext.RequestID(ctx); rid != "" {
		payload.Metadata["requestId"] = rid
	}

	if a.paymentEnabled {
		return a.handoff(ctx, key, next, payload)
	}
	return a.register(ctx, key, next, payload)
}

func (a *Assembler) validate(d models.Draft) (models.Draft, error) {
	topology := a.machine.Topology()
	if !topology.IsTerminal(d.Step) {
		return d, models.ErrNotTerminal
	}

	var fields []models.FieldError
	next, err := a.machine.Validate(models.StepPlan, d, steps.Input{})
	if err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return d, err
		}
		fields = append(fields, verr.Fields...)
		next = d.Clone()
	}
	if next.Personal.Password == "" {
		// A stored draft whose password could not be unsealed.
		fields = append(fields, models.FieldError{Field: "password", Message: "enter your password again"})
	}
	for _, field := range models.FileFields {
		if !next.Files.Get(field).Present() {
			fields = append(fields, models.FieldError{Field: string(field), Message: "upload required"})
		}
	}
	if topology.Contains(models.StepReferral) {
		next.ReferralCode = models.NormalizeReferralCode(next.ReferralCode)
		if !models.ValidReferralCode(next.ReferralCode) {
			fields = append(fields, models.FieldError{Field: "referralCode", Message: "is invalid"})
		}
	}
	if len(fields) > 0 {
		return d, models.NewValidationError(models.StepPlan, fields...)
	}
	return next, nil
}

type uploadResult struct {
	field models.FileField
	url   string
	name  string
	err   error
}

// uploadPending uploads every pending file concurrently. Successful uploads
// are written into the draft and persisted even when a sibling fails.
func (a *Assembler) uploadPending(ctx context.Context, key string, d models.Draft) (models.Draft, error) {
	var pending []models.FileField
	for _, field := range models.FileFields {
		if d.Files.Get(field).State() == models.FilePending {
			pending = append(pending, field)
		}
	}
	if len(pending) == 0 {
		return d, nil
	}

	ctx, span := a.tracer.Start(ctx, "registration.upload_files",
		trace.WithAttributes(attribute.Int("registration.pending_files", len(pending))))
	defer span.End()

	results := make([]uploadResult, len(pending))
	var g errgroup.Group
	for i, field := range pending {
		raw, _ := d.Files.Get(field).Pending()
		g.Go(func() error {
			start := time.Now()
			url, err := a.remote.Uploader.Upload(ctx, field, *raw)
			a.metrics.ObserveRemoteLatency("upload", time.Since(start))
			results[i] = uploadResult{field: field, url: url, name: raw.Name, err: err}
			return err
		})
	}
	// Per-file errors are read from results; both uploads always finish.
	_ = g.Wait()

	next := d.Clone()
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			a.metrics.IncrementUpload(string(r.field), "failed")
			a.logger.WarnContext(ctx, "upload failed", "field", r.field, "error", r.err)
			if firstErr == nil {
				firstErr = uploadFailure(r.field, r.err)
			}
			continue
		}
		a.metrics.IncrementUpload(string(r.field), "ok")
		if err := next.Files.Resolve(r.field, r.url, r.name); err != nil {
			return d, err
		}
	}

	if stamp, err := a.drafts.Save(ctx, key, next); err != nil {
		a.logger.ErrorContext(ctx, "failed to persist uploaded files", "error", err)
	} else {
		next.UpdatedAt = stamp
	}

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "upload failed")
		return next, firstErr
	}
	return next, nil
}

func (a *Assembler) register(ctx context.Context, key string, d models.Draft, payload models.Payload) (Outcome, models.Draft, error) {
	start := time.Now()
	reg, err := a.remote.Registrar.Register(ctx, payload)
	a.metrics.ObserveRemoteLatency("register", time.Since(start))
	if err != nil {
		return Outcome{}, d, collaboratorFailure("register", err)
	}

	if err := a.drafts.Clear(ctx, key); err != nil {
		a.logger.ErrorContext(ctx, "failed to clear draft after registration", "error", err)
	}
	a.logger.InfoContext(ctx, "registration completed", "member_id", reg.MemberID)
	return Outcome{Completed: true, MemberID: reg.MemberID}, models.NewDraft(a.machine.Topology()), nil
}

func (a *Assembler) handoff(ctx context.Context, key string, d models.Draft, payload models.Payload) (Outcome, models.Draft, error) {
	start := time.Now()
	h, err := a.remote.Payments.Initiate(ctx, payload)
	a.metrics.ObserveRemoteLatency("payment_initiate", time.Since(start))
	if err != nil {
		return Outcome{}, d, collaboratorFailure("payment_initiate", err)
	}
	if h.RedirectURL == "" {
		return Outcome{}, d, &models.NetworkFailure{Op: "payment_initiate", Err: errors.New("gateway returned no redirect")}
	}

	// The user leaves the site next; the stored draft must match what was paid for.
	stamp, err := a.drafts.Save(ctx, key, d)
	if err != nil {
		return Outcome{}, d, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save your progress before payment")
	}
	d.UpdatedAt = stamp
	a.logger.InfoContext(ctx, "payment initiated", "order_id", h.OrderID)
	return Outcome{RedirectURL: h.RedirectURL, OrderID: h.OrderID}, d, nil
}

func (a *Assembler) mode() string {
	if a.paymentEnabled {
		return "payment"
	}
	return "direct"
}

func (a *Assembler) begin(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.phases[key] {
	case PhaseValidating, PhaseUploading, PhaseSubmitting:
		return false
	}
	a.phases[key] = PhaseValidating
	return true
}

func (a *Assembler) setPhase(key string, p Phase) {
	a.mu.Lock()
	a.phases[key] = p
	a.mu.Unlock()
}

// end records the terminal phase for logging and returns the key to idle.
func (a *Assembler) end(key string, p Phase) {
	a.mu.Lock()
	delete(a.phases, key)
	a.mu.Unlock()
	a.logger.Debug("submission finished", "phase", p.String())
}

func uploadFailure(field models.FileField, err error) error {
	var constraint *models.UploadConstraintError
	if errors.As(err, &constraint) {
		return err
	}
	return collaboratorFailure("upload_"+string(field), err)
}

// collaboratorFailure keeps typed answers from collaborators and treats
// everything else as a retryable network failure.
func collaboratorFailure(op string, err error) error {
	var (
		nf  *models.NetworkFailure
		ecf *models.ExistenceCheckFailure
		ve  *models.ValidationError
	)
	if errors.As(err, &nf) || errors.As(err, &ecf) || errors.As(err, &ve) {
		return err
	}
	return &models.NetworkFailure{Op: op, Err: err}
}

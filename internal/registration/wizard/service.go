// Package wizard orchestrates a registration session: it owns the draft for
// each open session, serializes step transitions and routes the user's edits
// through the step machine, address resolver, kinship selector and
// submission assembler.
package wizard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"membership/internal/audit"
	"membership/internal/registration/address"
	"membership/internal/registration/draft"
	"membership/internal/registration/kinship"
	"membership/internal/registration/metrics"
	"membership/internal/registration/models"
	"membership/internal/registration/ports"
	"membership/internal/registration/steps"
	"membership/internal/registration/submission"
	dErrors "membership/pkg/domain-errors"
	"membership/pkg/requestcontext"
)

// DraftStore persists drafts between visits.
type DraftStore interface {
	Save(ctx context.Context, key string, d models.Draft) (time.Time, error)
	Clear(ctx context.Context, key string) error
	Resume(ctx context.Context, key string, status models.ReturnStatus, topology models.Topology) (draft.Resumed, error)
}

// Submitter finalizes a draft.
type Submitter interface {
	Submit(ctx context.Context, key string, d models.Draft) (submission.Outcome, models.Draft, error)
	PaymentEnabled() bool
}

// UploadLimits bound what AttachFile accepts.
type UploadLimits struct {
	MaxBytes int64
	// Allowed maps each field to the MIME types it accepts.
	Allowed map[models.FileField][]string
}

// DefaultUploadLimits accepts images for the photo and images or PDF for the
// identity document, up to 5 MiB each.
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxBytes: 5 << 20,
		Allowed: map[models.FileField][]string{
			models.FileJanAadhaar:   {"image/jpeg", "image/png", "application/pdf"},
			models.FileProfilePhoto: {"image/jpeg", "image/png"},
		},
	}
}

// StepInput carries what a step form submits. Nil fields keep the draft's value.
type StepInput struct {
	Phone        *string
	ReferralCode *string
	Personal     *models.Personal
	Plan         *string
	OTP          string
}

func (in StepInput) apply(d *models.Draft) {
	if in.Phone != nil {
		d.Phone = *in.Phone
	}
	if in.ReferralCode != nil {
		d.ReferralCode = *in.ReferralCode
	}
	if in.Personal != nil {
		d.Personal = *in.Personal
	}
	if in.Plan != nil {
		d.Plan = *in.Plan
	}
}

// AddressChoice is one cascade selection. Custom applies to the city only.
type AddressChoice struct {
	Code   string
	Custom bool
	Text   string
}

// KinshipChoice updates one slot. Text, when set, replaces the slot's
// remembered free text.
type KinshipChoice struct {
	Code   string
	Custom bool
	Text   *string
}

// Service is the wizard's entry point for the HTTP layer.
type Service struct {
	machine   *steps.Machine
	drafts    DraftStore
	submitter Submitter
	reference ports.ReferenceData
	resolver  *address.Resolver
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	limits    UploadLimits
	idleTTL   time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithUploadLimits(l UploadLimits) Option {
	return func(s *Service) {
		s.limits = l
	}
}

// WithIdleTTL sets how long an untouched session stays in memory. Its draft
// remains in the store and is reloaded on the next request.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

func WithResolver(r *address.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

func New(machine *steps.Machine, drafts DraftStore, submitter Submitter, reference ports.ReferenceData, opts ...Option) *Service {
	s := &Service{
		machine:   machine,
		drafts:    drafts,
		submitter: submitter,
		reference: reference,
		resolver:  address.NewResolver("en"),
		logger:    slog.Default(),
		limits:    DefaultUploadLimits(),
		idleTTL:   30 * time.Minute,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the wizard for key. A failed or pending payment status
// reloads the stored draft on the terminal step with a notice.
func (s *Service) Start(ctx context.Context, key string, status models.ReturnStatus) (View, error) {
	s.evictIdle(requestcontext.Now(ctx))

	if sess := s.cached(key); sess != nil {
		sess.mu.Lock()
		sess.lastSeen = requestcontext.Now(ctx)
		submitting := sess.submitting
		sess.mu.Unlock()
		if status == models.ReturnNone {
			return s.current(ctx, sess), nil
		}
		// A payment return must not replace a session whose submission is
		// still running.
		if submitting {
			return View{}, models.ErrSubmissionBusy
		}
	}

	sess, err := s.load(ctx, key, status)
	if err != nil {
		return View{}, err
	}
	return s.current(ctx, sess), nil
}

// View returns the current state for key, reloading it from the store when
// the session is not in memory.
func (s *Service) View(ctx context.Context, key string) (View, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}
	return s.current(ctx, sess), nil
}

// Advance applies in to the draft and tries to move past step. Only one
// transition per session may be in flight; if the user navigated while the
// remote check ran, the result is discarded with ErrStaleResult.
func (s *Service) Advance(ctx context.Context, key string, step models.StepID, in StepInput) (View, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	if err := sess.busy(); err != nil {
		sess.mu.Unlock()
		return View{}, err
	}
	if sess.draft.Step != step {
		sess.mu.Unlock()
		return View{}, models.ErrStepMismatch
	}
	candidate := sess.draft.Clone()
	in.apply(&candidate)
	sess.inFlight = true
	attempt := sess.attempt
	sess.mu.Unlock()

	start := time.Now()
	next, advanced, advErr := s.machine.Advance(ctx, step, candidate, steps.Input{OTP: in.OTP})
	s.metrics.ObserveRemoteLatency("advance_"+step.String(), time.Since(start))

	if err := s.applyAdvance(ctx, sess, step, attempt, advanced, advErr); err != nil {
		return View{}, err
	}
	s.emit(ctx, audit.Event{SessionID: key, Action: audit.ActionStepAdvanced, Step: step.String(), Attrs: map[string]string{"to": next.String()}})
	return s.entered(ctx, sess, next), nil
}

func (s *Service) applyAdvance(ctx context.Context, sess *Session, step models.StepID, attempt uint64, advanced models.Draft, advErr error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false
	if sess.attempt != attempt || sess.draft.Step != step {
		s.metrics.IncrementTransition(step.String(), "stale")
		s.logger.InfoContext(ctx, "discarding stale transition result", "step", step.String())
		return models.ErrStaleResult
	}
	if advErr != nil {
		s.metrics.IncrementTransition(step.String(), outcomeLabel(advErr))
		return advErr
	}

	sess.attempt++
	sess.draft = advanced
	sess.notice = nil
	s.metrics.IncrementTransition(step.String(), "advanced")
	return s.persist(ctx, sess)
}

// Retreat moves to the previous step. It always succeeds, including while a
// forward transition is in flight; that transition's result becomes stale.
func (s *Service) Retreat(ctx context.Context, key string) (View, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	if sess.submitting {
		sess.mu.Unlock()
		return View{}, models.ErrSubmissionBusy
	}

	from := sess.draft.Step
	sess.attempt++
	to := s.machine.Retreat(from)
	sess.draft.Step = to
	sess.notice = nil
	if to == from {
		v := s.view(sess)
		sess.mu.Unlock()
		return v, nil
	}
	err = s.persist(ctx, sess)
	sess.mu.Unlock()
	if err != nil {
		return View{}, err
	}
	s.emit(ctx, audit.Event{SessionID: key, Action: audit.ActionStepRetreated, Step: from.String()})
	return s.entered(ctx, sess, to), nil
}

// SelectAddress applies a cascade selection for one level of an address.
func (s *Service) SelectAddress(ctx context.Context, key string, kind models.AddressKind, level models.Level, choice AddressChoice) (View, error) {
	if !kind.Valid() {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown address kind")
	}
	if level != models.LevelState && level != models.LevelDistrict && level != models.LevelCity {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown address level")
	}
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}
	s.reconcile(ctx, sess)

	sess.mu.Lock()
	if err := s.editable(sess, models.StepAddress); err != nil {
		sess.mu.Unlock()
		return View{}, err
	}
	parent := parentCode(*sess.draft.Addresses.Get(kind), level)
	sess.mu.Unlock()

	if level != models.LevelState && parent == "" {
		return View{}, models.ErrParentNotSelected
	}
	list, err := s.referenceList(ctx, level, parent)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.editable(sess, models.StepAddress); err != nil {
		return View{}, err
	}
	if parentCode(*sess.draft.Addresses.Get(kind), level) != parent {
		return View{}, models.ErrStaleResult
	}

	next := sess.draft.Clone()
	addr := next.Addresses.Get(kind)
	switch level {
	case models.LevelState:
		err = s.resolver.SelectState(addr, choice.Code, list)
	case models.LevelDistrict:
		err = s.resolver.SelectDistrict(addr, choice.Code, list)
	case models.LevelCity:
		sel := models.ParseSelection(choice.Code)
		if choice.Custom {
			sel = models.Custom()
		}
		err = s.resolver.SelectCity(addr, sel, choice.Text, list)
	}
	if err != nil {
		return View{}, err
	}
	sess.draft = next
	if err := s.persist(ctx, sess); err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

// SetVillage records the free-text village of an address.
func (s *Service) SetVillage(ctx context.Context, key string, kind models.AddressKind, village string) (View, error) {
	if !kind.Valid() {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown address kind")
	}
	return s.mutate(ctx, key, models.StepAddress, func(d *models.Draft) error {
		d.Addresses.Get(kind).Village = strings.TrimSpace(village)
		return nil
	})
}

// SetKinship updates one kinship slot. Predefined codes are checked against
// the gotra list.
func (s *Service) SetKinship(ctx context.Context, key string, slot models.Slot, choice KinshipChoice) (View, error) {
	if !slot.Valid() {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown kinship slot")
	}
	sel := models.ParseSelection(choice.Code)
	if choice.Custom {
		sel = models.Custom()
	}
	if code, ok := sel.Code(); ok {
		list, err := s.referenceList(ctx, models.LevelGotra, "")
		if err != nil {
			return View{}, err
		}
		if !contains(list, code) {
			return View{}, models.ErrUnknownReference
		}
	}
	return s.mutate(ctx, key, models.StepKinship, func(d *models.Draft) error {
		if err := kinship.SetSlot(&d.Kinship, slot, sel); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid kinship selection")
		}
		if choice.Text != nil {
			if err := kinship.SetCustomText(&d.Kinship, slot, *choice.Text); err != nil {
				return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid kinship text")
			}
		}
		return nil
	})
}

// AttachFile stages a document for upload at submission time. Size and type
// are checked here, before any network call.
func (s *Service) AttachFile(ctx context.Context, key string, field models.FileField, name string, data []byte) (View, error) {
	if !field.Valid() {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown file field")
	}
	if err := s.checkUpload(field, data); err != nil {
		return View{}, err
	}
	raw := models.RawFile{Name: name, ContentType: mimetype.Detect(data).String(), Data: data}
	return s.mutateTerminal(ctx, key, func(d *models.Draft) error {
		return d.Files.Attach(field, raw)
	}, false)
}

// RemoveFile clears a staged or uploaded document so another can be attached.
func (s *Service) RemoveFile(ctx context.Context, key string, field models.FileField) (View, error) {
	if !field.Valid() {
		return View{}, dErrors.New(dErrors.CodeBadRequest, "unknown file field")
	}
	return s.mutateTerminal(ctx, key, func(d *models.Draft) error {
		d.Files.Remove(field)
		return nil
	}, true)
}

// SetPlan records the selected plan on the terminal step.
func (s *Service) SetPlan(ctx context.Context, key string, plan string) (View, error) {
	return s.mutateTerminal(ctx, key, func(d *models.Draft) error {
		d.Plan = strings.TrimSpace(plan)
		return nil
	}, true)
}

// Submit finalizes the session's draft. A completed registration ends the
// session; a payment handoff keeps it for the return trip.
func (s *Service) Submit(ctx context.Context, key string) (SubmitResult, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return SubmitResult{}, err
	}
	sess.mu.Lock()
	if err := sess.busy(); err != nil {
		sess.mu.Unlock()
		return SubmitResult{}, err
	}
	sess.submitting = true
	d := sess.draft.Clone()
	sess.mu.Unlock()

	outcome, after, subErr := s.submitter.Submit(ctx, key, d)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.submitting = false
	if subErr != nil {
		// Keep files resolved before the failure so a retry skips them.
		if !errors.Is(subErr, models.ErrSubmissionBusy) {
			sess.draft = after
		}
		s.emit(ctx, audit.Event{SessionID: key, Action: audit.ActionSubmissionFailed, Reason: outcomeLabel(subErr)})
		return SubmitResult{}, subErr
	}

	if outcome.Completed {
		s.forgetSession(key, sess)
		s.emit(ctx, audit.Event{
			SessionID: key,
			Action:    audit.ActionSubmissionSucceeded,
			Attrs:     map[string]string{"member_id": outcome.MemberID, "phone": models.MaskPhone(d.Phone)},
		})
		return SubmitResult{Completed: true, MemberID: outcome.MemberID}, nil
	}

	sess.draft = after
	sess.notice = nil
	s.emit(ctx, audit.Event{SessionID: key, Action: audit.ActionPaymentInitiated, Attrs: map[string]string{"order_id": outcome.OrderID}})
	v := s.view(sess)
	return SubmitResult{RedirectURL: outcome.RedirectURL, View: &v}, nil
}

// Abandon discards the session and its stored draft.
func (s *Service) Abandon(ctx context.Context, key string) error {
	if sess := s.cached(key); sess != nil {
		sess.mu.Lock()
		busy := sess.submitting
		sess.mu.Unlock()
		if busy {
			return models.ErrSubmissionBusy
		}
	}
	if err := s.drafts.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not discard your registration")
	}
	s.forget(key)
	s.emit(ctx, audit.Event{SessionID: key, Action: audit.ActionDraftAbandoned})
	return nil
}

// mutate applies fn to a copy of the draft while the user is on step and
// persists the result.
func (s *Service) mutate(ctx context.Context, key string, step models.StepID, fn func(*models.Draft) error) (View, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.editable(sess, step); err != nil {
		return View{}, err
	}
	next := sess.draft.Clone()
	if err := fn(&next); err != nil {
		return View{}, err
	}
	sess.draft = next
	if err := s.persist(ctx, sess); err != nil {
		return View{}, err
	}
	return s.view(sess), nil
}

// mutateTerminal is mutate for the terminal step. Attaching a file changes
// only in-memory state, so persisting is optional.
func (s *Service) mutateTerminal(ctx context.Context, key string, fn func(*models.Draft) error, persist bool) (View, error) {
	sess, err := s.session(ctx, key)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.editable(sess, s.machine.Topology().Terminal()); err != nil {
		return View{}, err
	}
	next := sess.draft.Clone()
	if err := fn(&next); err != nil {
		return View{}, err
	}
	sess.draft = next
	if persist {
		if err := s.persist(ctx, sess); err != nil {
			return View{}, err
		}
	}
	return s.view(sess), nil
}

func (s *Service) editable(sess *Session, step models.StepID) error {
	if err := sess.busy(); err != nil {
		return err
	}
	if sess.draft.Step != step {
		return models.ErrStepMismatch
	}
	return nil
}

// session returns the in-memory session for key, loading it from the store
// when needed.
func (s *Service) session(ctx context.Context, key string) (*Session, error) {
	if key == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing wizard session")
	}
	if sess := s.cached(key); sess != nil {
		sess.mu.Lock()
		sess.lastSeen = requestcontext.Now(ctx)
		sess.mu.Unlock()
		return sess, nil
	}
	return s.load(ctx, key, models.ReturnNone)
}

func (s *Service) load(ctx context.Context, key string, status models.ReturnStatus) (*Session, error) {
	resumed, err := s.drafts.Resume(ctx, key, status, s.machine.Topology())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not load your registration")
	}
	sess := newSession(key, resumed.Draft, resumed.Notice, requestcontext.Now(ctx))

	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok && status == models.ReturnNone {
		// Another request loaded it first; keep that one and its pending files.
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[key] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)

	action := audit.ActionDraftStarted
	if resumed.Found {
		action = audit.ActionDraftResumed
	}
	s.emit(ctx, audit.Event{SessionID: key, Action: action, Step: resumed.Draft.Step.String(), Reason: string(status)})
	return sess, nil
}

// current reconciles sess and returns its view.
func (s *Service) current(ctx context.Context, sess *Session) View {
	s.reconcile(ctx, sess)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

// entered returns the view after a move to step. Arriving on the address
// step reconciles first so the cascade shows codes for stored names.
func (s *Service) entered(ctx context.Context, sess *Session, step models.StepID) View {
	if step == models.StepAddress {
		return s.current(ctx, sess)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

// reconcile backfills reference codes for address names that have none. It
// runs whenever the session is shown or the address step is used, so a list
// that was unavailable earlier is picked up once it comes back. Lists are
// fetched with the session unlocked; the result is dropped if the addresses
// changed meanwhile.
func (s *Service) reconcile(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	if sess.busy() != nil || !address.Unresolved(sess.draft.Addresses) {
		sess.mu.Unlock()
		return
	}
	before := sess.draft.Addresses
	attempts := sess.reconciled.Clone()
	sess.mu.Unlock()

	addrs := before
	var changed []models.AddressKind
	for _, kind := range models.AddressKinds {
		if s.resolver.ReconcileAll(addrs.Get(kind), kind, attempts, func(level models.Level, parent string) []models.ReferenceEntry {
			list, err := s.referenceList(ctx, level, parent)
			if err != nil {
				s.logger.WarnContext(ctx, "reference data unavailable for reconciliation", "level", level, "error", err)
				return nil
			}
			return list
		}) {
			changed = append(changed, kind)
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.busy() != nil || sess.draft.Addresses != before {
		return
	}
	sess.reconciled = attempts
	if len(changed) == 0 {
		return
	}
	sess.draft.Addresses = addrs
	for _, kind := range changed {
		s.metrics.IncrementReconciled(string(kind))
	}
	if err := s.persist(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, "failed to persist reconciled codes", "error", err)
	}
}

func (s *Service) persist(ctx context.Context, sess *Session) error {
	stamp, err := s.drafts.Save(ctx, sess.key, sess.draft)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save draft", "step", sess.draft.Step.String(), "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not save your progress")
	}
	sess.draft.UpdatedAt = stamp
	return nil
}

func (s *Service) referenceList(ctx context.Context, level models.Level, parent string) ([]models.ReferenceEntry, error) {
	start := time.Now()
	list, err := s.reference.List(ctx, level, parent)
	s.metrics.ObserveRemoteLatency("reference_"+string(level), time.Since(start))
	if err != nil {
		var nf *models.NetworkFailure
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, &models.NetworkFailure{Op: "reference_" + string(level), Err: err}
	}
	return list, nil
}

func (s *Service) checkUpload(field models.FileField, data []byte) error {
	if len(data) == 0 {
		return &models.UploadConstraintError{Field: field, Reason: "file is empty"}
	}
	if s.limits.MaxBytes > 0 && int64(len(data)) > s.limits.MaxBytes {
		return &models.UploadConstraintError{Field: field, Reason: "file is too large", TooLarge: true}
	}
	allowed := s.limits.Allowed[field]
	if len(allowed) == 0 {
		return nil
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return &models.UploadConstraintError{Field: field, Reason: "unsupported file type " + mt.String()}
	}
	return nil
}

func (s *Service) view(sess *Session) View {
	return buildView(s.machine.Topology(), sess, s.submitter.PaymentEnabled())
}

func (s *Service) cached(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[key]
}

func (s *Service) forget(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
}

// forgetSession drops key only while it still maps to sess.
func (s *Service) forgetSession(key string, sess *Session) {
	s.mu.Lock()
	if s.sessions[key] == sess {
		delete(s.sessions, key)
	}
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(n)
}

func (s *Service) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		idle := !sess.inFlight && !sess.submitting && now.Sub(sess.lastSeen) > s.idleTTL
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, key)
		}
	}
	s.metrics.SetActiveSessions(len(s.sessions))
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event", "action", event.Action, "error", err)
	}
}

func parentCode(addr models.Address, level models.Level) string {
	switch level {
	case models.LevelDistrict:
		return addr.StateCode
	case models.LevelCity:
		return addr.DistrictCode
	}
	return ""
}

func contains(list []models.ReferenceEntry, code string) bool {
	for _, e := range list {
		if e.Code == code {
			return true
		}
	}
	return false
}

func outcomeLabel(err error) string {
	var (
		ve  *models.ValidationError
		ecf *models.ExistenceCheckFailure
		nf  *models.NetworkFailure
	)
	switch {
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ecf):
		return "rejected"
	case errors.As(err, &nf):
		return "unavailable"
	}
	return "error"
}

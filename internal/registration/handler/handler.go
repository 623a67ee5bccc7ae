// Package handler exposes the registration wizard over JSON HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"membership/internal/platform/middleware"
	"membership/internal/registration/models"
	"membership/internal/registration/wizard"
	dErrors "membership/pkg/domain-errors"
	"membership/pkg/platform/httputil"
	"membership/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks

// Service is the wizard surface the handler drives.
type Service interface {
	Start(ctx context.Context, key string, status models.ReturnStatus) (wizard.View, error)
	View(ctx context.Context, key string) (wizard.View, error)
	Advance(ctx context.Context, key string, step models.StepID, in wizard.StepInput) (wizard.View, error)
	Retreat(ctx context.Context, key string) (wizard.View, error)
	SelectAddress(ctx context.Context, key string, kind models.AddressKind, level models.Level, choice wizard.AddressChoice) (wizard.View, error)
	SetVillage(ctx context.Context, key string, kind models.AddressKind, village string) (wizard.View, error)
	SetKinship(ctx context.Context, key string, slot models.Slot, choice wizard.KinshipChoice) (wizard.View, error)
	AttachFile(ctx context.Context, key string, field models.FileField, name string, data []byte) (wizard.View, error)
	RemoveFile(ctx context.Context, key string, field models.FileField) (wizard.View, error)
	SetPlan(ctx context.Context, key string, plan string) (wizard.View, error)
	Submit(ctx context.Context, key string) (wizard.SubmitResult, error)
	Abandon(ctx context.Context, key string) error
}

// ReferenceLister serves the cascade dropdowns.
type ReferenceLister interface {
	List(ctx context.Context, level models.Level, parentCode string) ([]models.ReferenceEntry, error)
}

// Handler wires the wizard endpoints to the wizard service.
type Handler struct {
	service   Service
	reference ReferenceLister
	tokens    middleware.SessionTokens
	session   middleware.SessionOptions
	maxUpload int64
	throttle  func(http.Handler) http.Handler
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithSessionCookie sets the lifetime and Secure flag of the session cookie.
func WithSessionCookie(ttl time.Duration, secure bool) Option {
	return func(h *Handler) {
		h.session.TTL = ttl
		h.session.Secure = secure
	}
}

// WithMaxUpload bounds multipart bodies. Files over the wizard's own limit
// are still rejected by the service with a field-level message.
func WithMaxUpload(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithSessionThrottle guards session creation, the only unauthenticated
// endpoint that writes state.
func WithSessionThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

// New constructs a registration handler with its dependencies.
func New(service Service, reference ReferenceLister, tokens middleware.SessionTokens, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:   service,
		reference: reference,
		tokens:    tokens,
		session:   middleware.SessionOptions{TTL: 7 * 24 * time.Hour},
		maxUpload: 5 << 20,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the wizard and reference-data endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reference/{level}", h.HandleReference)

	r.Group(func(r chi.Router) {
		issuing := h.session
		issuing.Issue = true
		if h.throttle != nil {
			r.Use(h.throttle)
		}
		r.Use(middleware.Session(h.tokens, issuing, h.logger))
		r.Post("/registration/session", h.HandleStart)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(h.tokens, h.session, h.logger))
		r.Get("/registration", h.HandleView)
		r.Delete("/registration", h.HandleAbandon)
		r.Post("/registration/advance", h.HandleAdvance)
		r.Post("/registration/retreat", h.HandleRetreat)
		r.Put("/registration/addresses/{kind}/{level}", h.HandleAddress)
		r.Put("/registration/kinship/{slot}", h.HandleKinship)
		r.Post("/registration/files/{field}", h.HandleAttachFile)
		r.Delete("/registration/files/{field}", h.HandleRemoveFile)
		r.Put("/registration/plan", h.HandlePlan)
		r.Post("/registration/submit", h.HandleSubmit)
	})
}

// HandleStart handles POST /registration/session?status=. The status is the
// indicator the payment provider appends to its return URL.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.ParseReturnStatus(r.URL.Query().Get("status"))
	view, err := h.service.Start(ctx, sessionKey(ctx), status)
	if err != nil {
		h.fail(ctx, w, "start", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleView handles GET /registration.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.View(ctx, sessionKey(ctx))
	if err != nil {
		h.fail(ctx, w, "view", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleAbandon handles DELETE /registration.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Abandon(ctx, sessionKey(ctx)); err != nil {
		h.fail(ctx, w, "abandon", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdvance handles POST /registration/advance.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AdvanceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.Advance(ctx, sessionKey(ctx), req.Step, req.Input())
	if err != nil {
		h.fail(ctx, w, "advance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleRetreat handles POST /registration/retreat.
func (h *Handler) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Retreat(ctx, sessionKey(ctx))
	if err != nil {
		h.fail(ctx, w, "retreat", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleAddress handles PUT /registration/addresses/{kind}/{level}. The
// village level takes free text; the others are cascade selections.
func (h *Handler) HandleAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := models.AddressKind(chi.URLParam(r, "kind"))
	level := chi.URLParam(r, "level")

	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var (
		view wizard.View
		err  error
	)
	if level == "village" {
		view, err = h.service.SetVillage(ctx, sessionKey(ctx), kind, req.Text)
	} else {
		view, err = h.service.SelectAddress(ctx, sessionKey(ctx), kind, models.Level(level), req.Choice())
	}
	if err != nil {
		h.fail(ctx, w, "address", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleKinship handles PUT /registration/kinship/{slot}.
func (h *Handler) HandleKinship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slot := models.Slot(chi.URLParam(r, "slot"))
	req, ok := httputil.DecodeAndPrepare[KinshipRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.SetKinship(ctx, sessionKey(ctx), slot, req.Choice())
	if err != nil {
		h.fail(ctx, w, "kinship", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleAttachFile handles POST /registration/files/{field} with a multipart
// "file" part.
func (h *Handler) HandleAttachFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	field := models.FileField(chi.URLParam(r, "field"))

	// Headroom for multipart framing; oversized files reach the service,
	// which reports them against the field.
	limit := h.maxUpload + (1 << 20)
	if r.ContentLength > limit {
		h.fail(ctx, w, "attach_file", &models.UploadConstraintError{Field: field, Reason: "file is too large", TooLarge: true})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.fail(ctx, w, "attach_file", &models.UploadConstraintError{Field: field, Reason: "file is too large", TooLarge: true})
			return
		}
		h.fail(ctx, w, "attach_file", dErrors.New(dErrors.CodeBadRequest, "a file part is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.fail(ctx, w, "attach_file", dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read the uploaded file"))
		return
	}
	view, err := h.service.AttachFile(ctx, sessionKey(ctx), field, header.Filename, data)
	if err != nil {
		h.fail(ctx, w, "attach_file", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleRemoveFile handles DELETE /registration/files/{field}.
func (h *Handler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.RemoveFile(ctx, sessionKey(ctx), models.FileField(chi.URLParam(r, "field")))
	if err != nil {
		h.fail(ctx, w, "remove_file", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandlePlan handles PUT /registration/plan.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PlanRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	view, err := h.service.SetPlan(ctx, sessionKey(ctx), req.Plan)
	if err != nil {
		h.fail(ctx, w, "plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleSubmit handles POST /registration/submit. A payment handoff answers
// 202 with the redirect; a completed registration answers 201.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	result, err := h.service.Submit(ctx, sessionKey(ctx))
	if err != nil {
		h.fail(ctx, w, "submit", err)
		return
	}
	h.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestcontext.RequestID(ctx),
		"completed", result.Completed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if result.Completed {
		http.SetCookie(w, &http.Cookie{Name: middleware.SessionCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		httputil.WriteJSON(w, http.StatusCreated, result)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

// HandleReference handles GET /reference/{level}?parent=.
func (h *Handler) HandleReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	level := models.Level(chi.URLParam(r, "level"))
	if !level.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown reference level"))
		return
	}
	parent := r.URL.Query().Get("parent")
	if level.Parent() != "" && parent == "" {
		// Nothing is selected above this level yet.
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"level": level, "parent": parent, "items": []models.ReferenceEntry{}})
		return
	}
	list, err := h.reference.List(ctx, level, parent)
	if err != nil {
		h.fail(ctx, w, "reference", err)
		return
	}
	if list == nil {
		list = []models.ReferenceEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"level": level, "parent": parent, "items": list})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionKey(ctx),
		"op", op,
		"error", err,
	}
	if httputil.StatusFor(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "registration request failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "registration request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}

func sessionKey(ctx context.Context) string {
	id := requestcontext.SessionID(ctx)
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "membership/pkg/domain-errors"
	"membership/pkg/platform/httputil"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Lister reads recorded events back.
type Lister interface {
	ListBySession(ctx context.Context, sessionID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Handler serves the operator view of lifecycle events.
type Handler struct {
	events Lister
	logger *slog.Logger
}

func NewHandler(events Lister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{events: events, logger: logger}
}

// Register mounts the event listing. Callers protect the route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/registration/events", h.HandleList)
}

type listResponse struct {
	Events []Event `json:"events"`
}

// HandleList handles GET /admin/registration/events?session=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		events []Event
		err    error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		events, err = h.events.ListBySession(ctx, session)
	} else {
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 || limit > maxListLimit {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000"))
				return
			}
		}
		events, err = h.events.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Events: events})
}

// Package app assembles the registration service from configuration: draft
// backend, collaborators, wizard and HTTP routes.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"membership/internal/audit"
	"membership/internal/collaborators/members"
	"membership/internal/collaborators/payment"
	"membership/internal/collaborators/rest"
	"membership/internal/collaborators/upload"
	"membership/internal/collaborators/verify"
	jwttoken "membership/internal/jwt_token"
	"membership/internal/platform/config"
	"membership/internal/platform/health"
	"membership/internal/platform/metrics"
	"membership/internal/platform/middleware"
	platformredis "membership/internal/platform/redis"
	"membership/internal/ratelimit"
	"membership/internal/referencedata"
	"membership/internal/registration/address"
	"membership/internal/registration/draft"
	memorystore "membership/internal/registration/draft/store/memory"
	pgstore "membership/internal/registration/draft/store/postgres"
	redisstore "membership/internal/registration/draft/store/redis"
	"membership/internal/registration/handler"
	regmetrics "membership/internal/registration/metrics"
	"membership/internal/registration/models"
	"membership/internal/registration/ports"
	"membership/internal/registration/steps"
	"membership/internal/registration/submission"
	"membership/internal/registration/wizard"
	"membership/pkg/platform/circuit"
)

const (
	sessionIssuer     = "membership-registration"
	auditOutboxSize   = 256
	draftPurgeEvery   = 10 * time.Minute
	draftBackendRedis = "redis"
	draftBackendPg    = "postgres"
)

// App is a wired service instance.
type App struct {
	cfg        config.Server
	log        *slog.Logger
	handler    *handler.Handler
	events     *audit.Handler
	drafts     *draft.Store
	pingers    map[string]health.Pinger
	background []func(ctx context.Context) error
	closers    []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Run blocks running background jobs (audit forwarding, draft purging) until
// ctx is done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range a.background {
		g.Go(func() error { return job(gctx) })
	}
	return g.Wait()
}

// Router mounts every endpoint behind the shared middleware chain.
func (a *App) Router(reg prometheus.Gatherer, httpMetrics *metrics.HTTP) http.Handler {
	checks := health.NewChecker(2*time.Second).Add("drafts", a.drafts)
	for name, p := range a.pingers {
		checks.Add(name, p)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Recovery(a.log))
	router.Use(middleware.Logger(a.log, httpMetrics))
	router.Get("/health", checks.Handler())
	if reg != nil {
		router.Method(http.MethodGet, "/metrics", metrics.HandlerFor(reg))
	}
	a.handler.Register(router)
	if a.cfg.AdminToken != "" {
		router.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(a.cfg.AdminToken, a.log))
			a.events.Register(r)
		})
	}
	return router
}

// New wires the service. Registration metrics go to reg.
func New(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	app := &App{cfg: cfg, log: log, pingers: make(map[string]health.Pinger)}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
		app.pingers["redis"] = redisClient
	}

	backend, err := draftBackend(ctx, cfg, redisClient, log, app)
	if err != nil {
		return fail(err)
	}
	sealer, err := draft.NewSealer(cfg.SessionSigningKey)
	if err != nil {
		return fail(fmt.Errorf("SESSION_SIGNING_KEY: %w", err))
	}
	app.drafts = draft.New(backend, draft.WithLogger(log), draft.WithSealer(sealer))

	reference, err := referenceData(cfg, redisClient, log)
	if err != nil {
		return fail(err)
	}

	membersRC, err := collaborator("MEMBERS_URL", cfg.Collaborators.MembersURL, cfg)
	if err != nil {
		return fail(err)
	}
	uploadRC, err := collaborator("UPLOAD_URL", cfg.Collaborators.UploadURL, cfg)
	if err != nil {
		return fail(err)
	}
	registry := members.New(membersRC, log)

	var limits ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		limits = ratelimit.NewRedisStore(redisClient.Client)
	}

	remote := steps.Collaborators{Phones: registry, Referrals: registry}
	if cfg.Registration.PhoneVerification {
		if !cfg.Twilio.Enabled() {
			return fail(fmt.Errorf("phone verification is enabled but TWILIO_* credentials are missing"))
		}
		twilio := verify.NewTwilio(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.ServiceSID, log)
		remote.Verifier = ratelimit.NewVerifier(twilio, limits,
			ratelimit.Rule{Limit: cfg.RateLimit.OTPLimit, Window: cfg.RateLimit.OTPWindow}, log)
	}

	flags := models.Flags{
		PhoneVerification: cfg.Registration.PhoneVerification,
		Referral:          cfg.Registration.Referral,
	}
	machine := steps.New(flags, remote, steps.WithLogger(log), steps.WithPlans(cfg.Registration.Plans...))

	finalize := submission.Collaborators{Uploader: upload.New(uploadRC), Registrar: registry}
	if cfg.Registration.Payment {
		paymentRC, err := collaborator("PAYMENT_URL", cfg.Collaborators.PaymentURL, cfg)
		if err != nil {
			return fail(err)
		}
		finalize.Payments = payment.New(paymentRC, cfg.Collaborators.PaymentReturn)
	}

	regMetrics := regmetrics.NewWithRegisterer(reg)
	assembler := submission.New(machine, app.drafts, finalize,
		submission.WithLogger(log),
		submission.WithMetrics(regMetrics),
		submission.WithPaymentEnabled(cfg.Registration.Payment),
	)

	auditor, err := auditPublisher(cfg, log, app)
	if err != nil {
		return fail(err)
	}

	uploads := wizard.DefaultUploadLimits()
	uploads.MaxBytes = cfg.Registration.MaxUploadBytes
	service := wizard.New(machine, app.drafts, assembler, reference,
		wizard.WithLogger(log),
		wizard.WithMetrics(regMetrics),
		wizard.WithAuditor(auditor),
		wizard.WithUploadLimits(uploads),
		wizard.WithIdleTTL(cfg.Registration.SessionIdleTTL),
		wizard.WithResolver(address.NewResolver(cfg.Registration.Language)),
	)

	tokens := jwttoken.NewJWTService(cfg.SessionSigningKey, sessionIssuer)
	app.handler = handler.New(service, reference, tokens, log,
		handler.WithSessionCookie(cfg.SessionTTL, cfg.SecureCookies),
		handler.WithMaxUpload(cfg.Registration.MaxUploadBytes),
		handler.WithSessionThrottle(ratelimit.NewMiddleware(limits, log).PerIP("session",
			ratelimit.Rule{Limit: cfg.RateLimit.SessionLimit, Window: cfg.RateLimit.SessionWindow})),
	)
	return app, nil
}

func draftBackend(ctx context.Context, cfg config.Server, redisClient *platformredis.Client, log *slog.Logger, app *App) (draft.Backend, error) {
	switch cfg.Registration.DraftBackend {
	case draftBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("draft backend redis requires REDIS_URL")
		}
		return redisstore.New(redisClient.Client, redisstore.WithTTL(cfg.Registration.DraftTTL)), nil

	case draftBackendPg:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("draft backend postgres requires DATABASE_URL")
		}
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		store := pgstore.New(db, pgstore.WithTTL(cfg.Registration.DraftTTL))
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		app.background = append(app.background, func(ctx context.Context) error {
			return purgeDrafts(ctx, store, log)
		})
		return store, nil
	}
	log.Warn("drafts are kept in memory and lost on restart", "backend", cfg.Registration.DraftBackend)
	return memorystore.New(), nil
}

func purgeDrafts(ctx context.Context, store *pgstore.Store, log *slog.Logger) error {
	ticker := time.NewTicker(draftPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Warn("draft purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired drafts", "count", n)
			}
		}
	}
}

func referenceData(cfg config.Server, redisClient *platformredis.Client, log *slog.Logger) (ports.ReferenceData, error) {
	var source ports.ReferenceData
	if cfg.Collaborators.ReferenceURL == "" {
		static, err := referencedata.NewStatic()
		if err != nil {
			return nil, err
		}
		log.Info("serving reference data from the embedded seed")
		return static, nil
	}
	rc, err := collaborator("REFERENCE_DATA_URL", cfg.Collaborators.ReferenceURL, cfg)
	if err != nil {
		return nil, err
	}
	source = referencedata.NewClient(rc)
	if redisClient != nil {
		source = referencedata.NewCache(source, redisClient.Client, cfg.Collaborators.ReferenceTTL, log)
	}
	return source, nil
}

func auditPublisher(cfg config.Server, log *slog.Logger, app *App) (*audit.Publisher, error) {
	primary := audit.NewInMemoryStore()
	app.events = audit.NewHandler(primary, log)
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewPublisher(primary, audit.WithLogger(log)), nil
	}

	sink, err := audit.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, sink.Close)
	app.pingers["kafka"] = sink

	outbox := make(chan audit.Event, auditOutboxSize)
	worker := audit.NewWorker(sink, outbox, audit.WithWorkerLogger(log))
	app.background = append(app.background, worker.Run)
	return audit.NewPublisher(primary, audit.WithLogger(log), audit.WithOutbox(outbox)), nil
}

// collaborator builds a REST client with its own circuit breaker, named
// after the env var that configures it.
func collaborator(env, baseURL string, cfg config.Server) (*rest.Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s is required", env)
	}
	return rest.New(baseURL, cfg.Collaborators.APIKey, cfg.Collaborators.Timeout,
		rest.WithBreaker(circuit.New(env)))
}

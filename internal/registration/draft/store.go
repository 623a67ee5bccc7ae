// Package draft persists the in-progress registration so a user can leave
// and come back, including the round trip through the payment provider.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"membership/internal/registration/models"
	"membership/pkg/platform/sentinel"
)

// Backend stores encoded drafts by session key. Implementations are pure I/O
// and return sentinel.ErrNotFound for a missing key.
type Backend interface {
	Put(ctx context.Context, key string, doc []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Resumed is the outcome of entering the wizard.
type Resumed struct {
	Draft  models.Draft
	Found  bool
	Notice *models.Notice
}

// Store owns draft serialization, per-key write ordering and the resume
// policy. Storage itself is delegated to a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	clock   func() time.Time

	sealer  *Sealer

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock lives only while some call holds or waits on key. last is the
// newest stamp handed out under it and is guarded by mu.
type keyLock struct {
	mu   sync.Mutex
	refs int
	last time.Time
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithSealer encrypts the password before a draft reaches the backend.
func WithSealer(sealer *Sealer) Option {
	return func(s *Store) {
		s.sealer = sealer
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		clock:   time.Now,
		locks:   make(map[string]*keyLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the persistable form of d under key and returns the stamp it
// was written with. Pending files are not persisted. Writes to the same key
// are applied one at a time in call order. The stamp is strictly after both
// d.UpdatedAt and any stamp issued to a call that overlapped this one.
func (s *Store) Save(ctx context.Context, key string, d models.Draft) (time.Time, error) {
	if key == "" {
		return time.Time{}, fmt.Errorf("draft key is required")
	}
	l := s.lock(key)
	defer s.unlock(key, l)

	stamp := s.stamp(l, d.UpdatedAt)
	doc := d.Persistable()
	doc.UpdatedAt = stamp
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(doc.Personal.Password)
		if err != nil {
			return time.Time{}, fmt.Errorf("seal draft: %w", err)
		}
		doc.Personal.Password = sealed
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode draft: %w", err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return time.Time{}, fmt.Errorf("save draft: %w", err)
	}
	return stamp, nil
}

// Load returns the persisted draft for key or models.ErrNoDraft.
func (s *Store) Load(ctx context.Context, key string) (models.Draft, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Draft{}, models.ErrNoDraft
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("load draft: %w", err)
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		// An unreadable document cannot be resumed; the user starts over.
		s.logger.WarnContext(ctx, "discarding unreadable draft", "error", err)
		return models.Draft{}, models.ErrNoDraft
	}
	if s.sealer != nil {
		password, err := s.sealer.Open(d.Personal.Password)
		if err != nil {
			// The applicant enters it again before submitting.
			s.logger.WarnContext(ctx, "dropping unreadable password from draft", "error", err)
			password = ""
		}
		d.Personal.Password = password
	}
	return d, nil
}

// Clear removes everything persisted under key.
func (s *Store) Clear(ctx context.Context, key string) error {
	l := s.lock(key)
	defer s.unlock(key, l)

	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// Resume loads the draft for key and positions it within topology. A failed
// or pending payment return lands on the terminal step with a notice; the
// status is ignored when nothing was saved.
func (s *Store) Resume(ctx context.Context, key string, status models.ReturnStatus, topology models.Topology) (Resumed, error) {
	d, err := s.Load(ctx, key)
	if errors.Is(err, models.ErrNoDraft) {
		return Resumed{Draft: models.NewDraft(topology)}, nil
	}
	if err != nil {
		return Resumed{}, err
	}

	d.Step = topology.Clamp(d.Step)
	out := Resumed{Draft: d, Found: true}
	if notice := models.NoticeFor(status); notice != nil {
		out.Draft.Step = topology.Terminal()
		out.Notice = notice
	}
	return out, nil
}

// stamp returns a UTC time strictly after prev and after the last stamp
// issued under l. The caller holds l.mu.
func (s *Store) stamp(l *keyLock, prev time.Time) time.Time {
	now := s.clock().UTC()
	if l.last.After(prev) {
		prev = l.last
	}
	if !prev.IsZero() && !now.After(prev) {
		now = prev.UTC().Add(time.Microsecond)
	}
	l.last = now
	return now
}

func (s *Store) lock(key string) *keyLock {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Store) unlock(key string, l *keyLock) {
	l.mu.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()
}

// Ping reports whether the backend is reachable. Backends without a Ping
// method are assumed healthy.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

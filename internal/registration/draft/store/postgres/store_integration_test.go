//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"membership/internal/registration/draft"
	"membership/internal/registration/draft/store/postgres"
	"membership/internal/registration/models"
	"membership/pkg/platform/sentinel"
	"membership/pkg/requestcontext"
	"membership/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB, postgres.WithTTL(time.Hour))
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "registration_drafts"))
}

func (s *PostgresStoreSuite) TestUpsertReplacesDocument() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, "sess-1", []byte(`{"step":1}`)))
	s.Require().NoError(s.store.Put(ctx, "sess-1", []byte(`{"step":4}`)))

	doc, err := s.store.Get(ctx, "sess-1")
	s.Require().NoError(err)
	s.JSONEq(`{"step":4}`, string(doc))
}

func (s *PostgresStoreSuite) TestExpiredDraftIsInvisible() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, "sess-1", []byte(`{}`)))

	later := requestcontext.WithTime(ctx, time.Now().Add(2*time.Hour))
	_, err := s.store.Get(later, "sess-1")
	s.ErrorIs(err, sentinel.ErrNotFound)

	purged, err := s.store.PurgeExpired(later)
	s.Require().NoError(err)
	s.EqualValues(1, purged)
}

func (s *PostgresStoreSuite) TestRoundTripThroughDraftStore() {
	ctx := context.Background()
	store := draft.New(s.store)

	d := models.NewDraft(models.NewTopology(models.Flags{}))
	d.Phone = "9876543210"
	d.Personal.Name = "Asha Verma"
	d.Kinship.Put(models.SlotSelf, models.Predefined("KASHYAP"))
	d.Files.JanAadhaar = models.ResolvedFile("https://cdn.example/ja.pdf", "ja.pdf")

	stamp, err := store.Save(ctx, "sess-1", d)
	s.Require().NoError(err)

	loaded, err := store.Load(ctx, "sess-1")
	s.Require().NoError(err)
	want := d.Persistable()
	want.UpdatedAt = stamp
	s.Equal(want, loaded)

	s.Require().NoError(store.Clear(ctx, "sess-1"))
	_, err = store.Load(ctx, "sess-1")
	s.ErrorIs(err, models.ErrNoDraft)
}

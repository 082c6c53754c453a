package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/pai-coursework/internal/platform/database"
	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := t.Context()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pilot"),
		postgres.WithUsername("pilot"),
		postgres.WithPassword("pilot"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := database.New(ctx, url, 4, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)

	s, err := NewPostgresStore(ctx, db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	// Schema creation is idempotent.
	if err := db.Migrate(ctx, Schema...); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	s := newPostgresStore(t)
	ctx := t.Context()
	start := time.Now().UTC().Truncate(time.Millisecond)
	id, ts, out := sampleRun(start)

	if err := s.RecordTransition(ctx, ts[0]); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}
	inFlight, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() in flight error = %v", err)
	}
	if inFlight.State != resolve.StateClassifying {
		t.Errorf("in-flight State = %s, want classifying", inFlight.State)
	}

	if err := s.RecordTransition(ctx, ts[1]); err != nil {
		t.Fatalf("RecordTransition() error = %v", err)
	}
	if err := s.RecordOutcome(ctx, out); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != resolve.StateErrored || got.ErrorKind != resolve.KindUnsupportedKind {
		t.Errorf("Get() = %+v", got)
	}
	if got.Assessment == nil || got.Assessment.EstimatedEffort != "1h" {
		t.Errorf("Assessment = %+v", got.Assessment)
	}
	if got.Answer != nil {
		t.Errorf("Answer = %+v, want nil", got.Answer)
	}
	if len(got.Transitions) != 2 || got.Transitions[1].Err == "" {
		t.Errorf("Transitions = %+v", got.Transitions)
	}
	if !got.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, start)
	}

	list, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].RunID != id {
		t.Errorf("List() = %+v", list)
	}
}

func TestPostgresStore_GetUnknown(t *testing.T) {
	s := newPostgresStore(t)
	if _, err := s.Get(t.Context(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

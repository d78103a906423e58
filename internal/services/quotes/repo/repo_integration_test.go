//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	perr "quotary/internal/platform/errors"
	"quotary/internal/platform/logger"
	"quotary/internal/platform/store"
	"quotary/internal/services/quotes/domain"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func quoteFixture(id string) domain.QuoteRow {
	return domain.QuoteRow{
		ID:          id,
		Text:        "— Когда дедлайн?\n— Вчера",
		Tags:        "#Матан ",
		ChannelName: "Забавные цитаты Летово",
		ChannelLink: "https://t.me/letovo_quotes",
		BatchID:     "batch-1",
	}
}

func TestRepo_Integration(t *testing.T) {
	dsn, stopPG := startPostgres(t)
	defer stopPG()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "quotary-repo-integration",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	}, store.WithLogger(*logger.Get()))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close(context.Background())

	if err := EnsureSchema(ctx, st.PG); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// Idempotent by design
	if err := EnsureSchema(ctx, st.PG); err != nil {
		t.Fatalf("EnsureSchema replay: %v", err)
	}

	r := NewPG().Bind(st.PG)
	const (
		idA = "000000000000000000000001"
		idB = "000000000000000000000002"
		idC = "000000000000000000000003"
	)

	t.Run("insert batch and replay", func(t *testing.T) {
		n, err := r.InsertActiveMany(ctx, []domain.QuoteRow{
			quoteFixture(idA), quoteFixture(idB), quoteFixture(idC),
		})
		if err != nil {
			t.Fatalf("InsertActiveMany: %v", err)
		}
		if n != 3 {
			t.Fatalf("inserted = %d, want 3", n)
		}

		// Replaying the same batch inserts nothing
		n, err = r.InsertActiveMany(ctx, []domain.QuoteRow{quoteFixture(idA)})
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if n != 0 {
			t.Fatalf("replay inserted = %d, want 0", n)
		}

		count, err := r.CountActive(ctx)
		if err != nil {
			t.Fatalf("CountActive: %v", err)
		}
		if count != 3 {
			t.Fatalf("count = %d, want 3", count)
		}
	})

	t.Run("find and scan", func(t *testing.T) {
		got, err := r.FindActive(ctx, idB)
		if err != nil {
			t.Fatalf("FindActive: %v", err)
		}
		if got.Text != quoteFixture(idB).Text || got.Tags != "#Матан " {
			t.Fatalf("row = %+v", got)
		}

		if _, err := r.FindActive(ctx, "0000000000000000000000ff"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("missing quote: %v", err)
		}

		first, err := r.FirstActiveID(ctx)
		if err != nil {
			t.Fatalf("FirstActiveID: %v", err)
		}
		if first != idA {
			t.Fatalf("first = %q, want %q", first, idA)
		}

		rows, err := r.ScanActiveFrom(ctx, idB, 10)
		if err != nil {
			t.Fatalf("ScanActiveFrom: %v", err)
		}
		if len(rows) != 2 || rows[0].ID != idB || rows[1].ID != idC {
			t.Fatalf("scan = %+v", rows)
		}
	})

	t.Run("vote counters", func(t *testing.T) {
		got, err := r.IncrementVote(ctx, idA, domain.VotePositive)
		if err != nil {
			t.Fatalf("IncrementVote: %v", err)
		}
		if got.PositiveVotes != 1 || got.NegativeVotes != 0 {
			t.Fatalf("after increment: p=%d n=%d", got.PositiveVotes, got.NegativeVotes)
		}

		if err := r.SetVotes(ctx, idA, 3, 0); err != nil {
			t.Fatalf("SetVotes: %v", err)
		}
		got, err = r.FindActive(ctx, idA)
		if err != nil {
			t.Fatalf("FindActive: %v", err)
		}
		if got.PositiveVotes != 3 {
			t.Fatalf("p = %d, want 3", got.PositiveVotes)
		}

		if _, err := r.IncrementVote(ctx, "0000000000000000000000ff", domain.VotePositive); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("vote on missing quote: %v", err)
		}
	})

	t.Run("nsfw counter", func(t *testing.T) {
		if err := r.IncrementNSFW(ctx, idB); err != nil {
			t.Fatalf("IncrementNSFW: %v", err)
		}
		got, err := r.FindActive(ctx, idB)
		if err != nil {
			t.Fatalf("FindActive: %v", err)
		}
		if got.NSFWCount != 1 {
			t.Fatalf("nsfw = %d, want 1", got.NSFWCount)
		}
	})

	t.Run("report duplicates absorbed", func(t *testing.T) {
		row, err := r.FindActive(ctx, idC)
		if err != nil {
			t.Fatalf("FindActive: %v", err)
		}
		if err := r.InsertReported(ctx, row); err != nil {
			t.Fatalf("InsertReported: %v", err)
		}
		if err := r.InsertReported(ctx, row); err != nil {
			t.Fatalf("repeat InsertReported: %v", err)
		}
		reported, err := r.DumpSet(ctx, SetReported)
		if err != nil {
			t.Fatalf("DumpSet: %v", err)
		}
		if len(reported) != 1 {
			t.Fatalf("reported rows = %d, want 1", len(reported))
		}
	})

	t.Run("finalize moves row", func(t *testing.T) {
		snap, ok, err := r.DeleteActive(ctx, idA)
		if err != nil {
			t.Fatalf("DeleteActive: %v", err)
		}
		if !ok {
			t.Fatal("expected a deleted row")
		}
		if snap.PositiveVotes != 3 {
			t.Fatalf("snapshot p = %d, want 3", snap.PositiveVotes)
		}
		if err := r.InsertArchived(ctx, snap); err != nil {
			t.Fatalf("InsertArchived: %v", err)
		}

		// Second delete is a benign miss
		if _, ok, err := r.DeleteActive(ctx, idA); err != nil || ok {
			t.Fatalf("repeat delete: ok=%v err=%v", ok, err)
		}

		archived, err := r.DumpSet(ctx, SetArchived)
		if err != nil {
			t.Fatalf("DumpSet: %v", err)
		}
		if len(archived) != 1 || archived[0].ID != idA {
			t.Fatalf("archived = %+v", archived)
		}
	})

	t.Run("id shape enforced", func(t *testing.T) {
		_, err := r.InsertActiveMany(ctx, []domain.QuoteRow{quoteFixture("not-a-hex-id")})
		if err == nil {
			t.Fatal("malformed id accepted")
		}
	})

	t.Run("tx rollback on error", func(t *testing.T) {
		wantErr := fmt.Errorf("boom")
		err := st.PG.Tx(ctx, func(q store.RowQuerier) error {
			rr := NewPG().Bind(q)
			if _, err := rr.InsertActiveMany(ctx, []domain.QuoteRow{quoteFixture("0000000000000000000000aa")}); err != nil {
				return err
			}
			return wantErr
		})
		if err == nil {
			t.Fatal("expected error from tx")
		}
		if _, err := r.FindActive(ctx, "0000000000000000000000aa"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("rolled back row still visible: %v", err)
		}
	})
}

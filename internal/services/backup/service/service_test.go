package service

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quotary/internal/modkit/repokit"
	"quotary/internal/services/quotes/domain"
	qrepo "quotary/internal/services/quotes/repo"
)

// dumpOnly stubs the quotes repo with fixed dump payloads
type dumpOnly struct {
	sets map[qrepo.Set][]domain.QuoteRow
}

func (d *dumpOnly) DumpSet(_ context.Context, set qrepo.Set) ([]domain.QuoteRow, error) {
	return d.sets[set], nil
}

func (d *dumpOnly) InsertActiveMany(context.Context, []domain.QuoteRow) (int, error) {
	panic("not used")
}
func (d *dumpOnly) FindActive(context.Context, string) (domain.QuoteRow, error) { panic("not used") }
func (d *dumpOnly) FirstActiveID(context.Context) (string, error)              { panic("not used") }
func (d *dumpOnly) ScanActiveFrom(context.Context, string, int) ([]domain.QuoteRow, error) {
	panic("not used")
}
func (d *dumpOnly) IncrementVote(context.Context, string, domain.VoteKind) (domain.QuoteRow, error) {
	panic("not used")
}
func (d *dumpOnly) SetVotes(context.Context, string, int, int) error { panic("not used") }
func (d *dumpOnly) IncrementNSFW(context.Context, string) error      { panic("not used") }
func (d *dumpOnly) DeleteActive(context.Context, string) (domain.QuoteRow, bool, error) {
	panic("not used")
}
func (d *dumpOnly) InsertArchived(context.Context, domain.QuoteRow) error { panic("not used") }
func (d *dumpOnly) InsertReported(context.Context, domain.QuoteRow) error { panic("not used") }
func (d *dumpOnly) CountActive(context.Context) (int64, error)            { panic("not used") }

type noTx struct{}

func (noTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error { return fn(nil) }
func (noTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	panic("not used")
}
func (noTx) Query(context.Context, string, ...any) (repokit.Rows, error) { panic("not used") }
func (noTx) QueryRow(context.Context, string, ...any) repokit.Row        { panic("not used") }

type stubBinder struct{ st qrepo.Storage }

func (b stubBinder) Bind(repokit.Queryer) qrepo.Storage { return b.st }

func newTestSvc(t *testing.T, dir string) (*Svc, *dumpOnly) {
	t.Helper()
	st := &dumpOnly{sets: map[qrepo.Set][]domain.QuoteRow{
		qrepo.SetActive: {
			{ID: "000000000000000000000001", Text: "Первая", ChannelName: "Тест"},
			{ID: "000000000000000000000002", Text: "Вторая", ChannelName: "Тест"},
		},
		qrepo.SetArchived: {
			{ID: "000000000000000000000003", Text: "Третья", PositiveVotes: 3},
		},
	}}
	svc := New(noTx{}, stubBinder{st: st}, Config{Dir: dir})
	return svc, st
}

func readDump(t *testing.T, path string) []record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dump: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gunzip dump: %v", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		t.Fatalf("unmarshal dump: %v", err)
	}
	return recs
}

func TestRunOnceWritesDumps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, _ := newTestSvc(t, dir)
	ctx := context.Background()

	results, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, res := range results {
		if res.Skipped {
			t.Fatalf("first pass skipped %s", res.Set)
		}
		if res.File == "" {
			t.Fatalf("no file for %s", res.Set)
		}
	}

	recs := readDump(t, filepath.Join(dir, results[0].File))
	if len(recs) != 2 {
		t.Fatalf("active dump rows = %d, want 2", len(recs))
	}
	if recs[0].ID != "000000000000000000000001" || recs[0].Text != "Первая" {
		t.Fatalf("active dump[0] = %+v", recs[0])
	}

	// Empty sets still produce a dump file
	reported := readDump(t, filepath.Join(dir, results[2].File))
	if len(reported) != 0 {
		t.Fatalf("reported dump rows = %d, want 0", len(reported))
	}
}

func TestRunOnceSuppressesDuplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, st := newTestSvc(t, dir)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.RunOnce(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	svc.now = func() time.Time { return base.Add(time.Hour) }
	results, err := svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	for _, res := range results {
		if !res.Skipped {
			t.Fatalf("unchanged %s dumped again", res.Set)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Fatalf("dir has %d files, want 3", len(entries))
	}

	// Mutate one set; only that set dumps on the next pass
	st.sets[qrepo.SetActive] = append(st.sets[qrepo.SetActive],
		domain.QuoteRow{ID: "000000000000000000000009", Text: "Новая"})
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	results, err = svc.RunOnce(ctx)
	if err != nil {
		t.Fatalf("third pass: %v", err)
	}
	if results[0].Skipped {
		t.Fatal("changed active set was not dumped")
	}
	if !results[1].Skipped || !results[2].Skipped {
		t.Fatal("unchanged sets were dumped")
	}
}

func TestPruneKeepsTodayAndNewest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, _ := newTestSvc(t, dir)
	ctx := context.Background()

	stale := filepath.Join(dir, "active_quotes_backup-01-Jan-00-00.json.gz")
	if err := writeGzip(stale, []byte("[]")); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}
	old := time.Now().UTC().Add(-72 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale file: %v", err)
	}

	if _, err := svc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale dump survived pruning")
	}

	// The newest file per set survives even when it is old
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var activeDumps int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".gz" && len(e.Name()) > len("active_quotes_backup-") &&
			e.Name()[:len("active_quotes_backup-")] == "active_quotes_backup-" {
			activeDumps++
		}
	}
	if activeDumps != 1 {
		t.Fatalf("active dumps after prune = %d, want 1", activeDumps)
	}
}

// Package service implements periodic gzip JSON dumps of the quote sets
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"quotary/internal/modkit/repokit"
	perr "quotary/internal/platform/errors"
	"quotary/internal/platform/logger"
	"quotary/internal/services/quotes/domain"
	qrepo "quotary/internal/services/quotes/repo"
)

// Config for the backup service
type Config struct {
	// Dir is where dump files land
	Dir string
	// Interval between dump passes in Loop
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	return c
}

// Svc dumps the active, archived and reported sets to compressed JSON.
// Consecutive identical dumps of a set are suppressed by payload digest,
// and dumps older than the current UTC day are pruned, always sparing
// the newest file per set so the digest baseline survives a quiet day
type Svc struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[qrepo.Storage]
	Cfg    Config

	now func() time.Time
}

// New constructs the backup service
func New(db repokit.TxRunner, binder repokit.Binder[qrepo.Storage], cfg Config) *Svc {
	if db == nil {
		panic("backup.Svc requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("backup.Svc requires a non-nil Storage binder")
	}
	return &Svc{DB: db, Binder: binder, Cfg: cfg.withDefaults(), now: time.Now}
}

// record is the on-disk row shape. Kept separate from the domain row so
// dump files stay stable if the domain struct grows
type record struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Tags          string `json:"tags"`
	ChannelName   string `json:"channel_name"`
	ChannelLink   string `json:"channel_link"`
	PositiveVotes int    `json:"positive_votes"`
	NegativeVotes int    `json:"negative_votes"`
	NSFWCount     int    `json:"nsfw_count"`
	BatchID       string `json:"batch_id,omitempty"`
}

// SetResult reports what happened to one set during a pass
type SetResult struct {
	Set     qrepo.Set
	File    string
	Rows    int
	Skipped bool
}

// RunOnce performs a single dump pass over all three sets
func (s *Svc) RunOnce(ctx context.Context) ([]SetResult, error) {
	if s.Cfg.Dir == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "backup dir not configured")
	}
	if err := os.MkdirAll(s.Cfg.Dir, 0o755); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "create backup dir")
	}

	started := s.now()
	log := logger.C(ctx)
	out := make([]SetResult, 0, 3)

	for _, set := range qrepo.Sets() {
		res, err := s.dumpSet(ctx, set)
		if err != nil {
			return out, err
		}
		out = append(out, res)
		log.Info().
			Str("set", string(set)).
			Str("file", res.File).
			Int("rows", res.Rows).
			Bool("skipped", res.Skipped).
			Msg("backup set done")
	}

	if err := s.prune(ctx); err != nil {
		return out, err
	}
	log.Info().Dur("elapsed", s.now().Sub(started)).Msg("backup pass complete")
	return out, nil
}

// Loop runs dump passes until ctx is cancelled. A failed pass is logged
// and the loop keeps its schedule
func (s *Svc) Loop(ctx context.Context) error {
	t := time.NewTicker(s.Cfg.Interval)
	defer t.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			logger.C(ctx).Error().Err(err).Msg("backup pass failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *Svc) dumpSet(ctx context.Context, set qrepo.Set) (SetResult, error) {
	var rows []domain.QuoteRow
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		rows, err = s.Binder.Bind(q).DumpSet(ctx, set)
		return err
	})
	if err != nil {
		return SetResult{}, err
	}

	recs := make([]record, len(rows))
	for i, r := range rows {
		recs[i] = record{
			ID: r.ID, Text: r.Text, Tags: r.Tags,
			ChannelName: r.ChannelName, ChannelLink: r.ChannelLink,
			PositiveVotes: r.PositiveVotes, NegativeVotes: r.NegativeVotes,
			NSFWCount: r.NSFWCount, BatchID: r.BatchID,
		}
	}
	payload, err := json.Marshal(recs)
	if err != nil {
		return SetResult{}, perr.Wrap(err, perr.ErrorCodeJSON, "marshal dump")
	}

	digest := md5.Sum(payload)
	prev, err := s.latestDigest(set)
	if err != nil {
		return SetResult{}, err
	}
	if prev == hex.EncodeToString(digest[:]) {
		return SetResult{Set: set, Rows: len(recs), Skipped: true}, nil
	}

	name := string(set) + "_backup-" + s.now().UTC().Format("02-Jan-15-04") + ".json.gz"
	path := filepath.Join(s.Cfg.Dir, name)
	if err := writeGzip(path, payload); err != nil {
		return SetResult{}, err
	}
	return SetResult{Set: set, File: name, Rows: len(recs)}, nil
}

// latestDigest is the md5 of the newest existing dump for the set, or
// empty when there is none
func (s *Svc) latestDigest(set qrepo.Set) (string, error) {
	newest, ok, err := s.newestFile(set)
	if err != nil || !ok {
		return "", err
	}
	f, err := os.Open(newest)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "open previous dump")
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "read previous dump")
	}
	defer zr.Close()

	h := md5.New()
	if _, err := io.Copy(h, zr); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "digest previous dump")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Svc) newestFile(set qrepo.Set) (string, bool, error) {
	files, err := s.setFiles(set)
	if err != nil || len(files) == 0 {
		return "", false, err
	}
	return files[len(files)-1], true, nil
}

// setFiles lists dump files for a set, oldest first by mod time
func (s *Svc) setFiles(set qrepo.Set) ([]string, error) {
	entries, err := os.ReadDir(s.Cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "list backup dir")
	}

	type fileAt struct {
		path string
		at   time.Time
	}
	var out []fileAt
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, string(set)+"_backup-") || !strings.HasSuffix(name, ".json.gz") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "stat backup file")
		}
		out = append(out, fileAt{path: filepath.Join(s.Cfg.Dir, name), at: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })

	paths := make([]string, len(out))
	for i, f := range out {
		paths[i] = f.path
	}
	return paths, nil
}

// prune removes dumps from previous UTC days, keeping the newest file
// of every set regardless of age
func (s *Svc) prune(ctx context.Context) error {
	today := s.now().UTC().Truncate(24 * time.Hour)
	log := logger.C(ctx)

	for _, set := range qrepo.Sets() {
		files, err := s.setFiles(set)
		if err != nil {
			return err
		}
		for i, path := range files {
			if i == len(files)-1 {
				break
			}
			info, err := os.Stat(path)
			if err != nil {
				return perr.Wrap(err, perr.ErrorCodeUnknown, "stat backup file")
			}
			if !info.ModTime().UTC().Truncate(24 * time.Hour).Before(today) {
				continue
			}
			if err := os.Remove(path); err != nil {
				return perr.Wrap(err, perr.ErrorCodeUnknown, "remove stale backup")
			}
			log.Debug().Str("file", filepath.Base(path)).Msg("pruned stale backup")
		}
	}
	return nil
}

func writeGzip(path string, payload []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "create dump file")
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(payload); err != nil {
		f.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write dump file")
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "flush dump file")
	}
	return f.Close()
}

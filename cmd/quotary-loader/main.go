package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"strings"
	"time"

	"quotary/internal/core/markup"
	"quotary/internal/core/profanity"
	"quotary/internal/platform/config"
	"quotary/internal/platform/logger"
	"quotary/internal/platform/store"

	"quotary/internal/services/quotes/repo"
	"quotary/internal/services/quotes/service"
)

// loadTexts accepts either a bare array of strings or an array of
// objects with a "text" field, which is how the channel exports differ
func loadTexts(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var texts []string
	if err := json.Unmarshal(raw, &texts); err == nil {
		return texts, nil
	}

	var objs []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, err
	}
	texts = make([]string, len(objs))
	for i, o := range objs {
		texts[i] = o.Text
	}
	return texts, nil
}

func main() {
	var (
		fSource = flag.String("source", "", "source key the file was scraped from (e.g. letovo, hse, msu)")
		fFile   = flag.String("file", "", "path to the JSON export to load")
		fSeed   = flag.Int64("seed", time.Now().UnixNano(), "shuffle seed; fix it to make a load reproducible")
		fNoGate = flag.Bool("keep-profanity", false, "skip the profanity gate and load everything that normalizes")
		fInit   = flag.Bool("init-schema", false, "create the quote tables before loading")
		fDryRun = flag.Bool("dry-run", false, "normalize and report without writing to the database")
	)
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	quotesCfg := root.Prefix("QUOTES_")

	l := logger.Get()

	if *fSource == "" || *fFile == "" {
		l.Panic().Msg("must provide -source and -file")
	}

	texts, err := loadTexts(*fFile)
	if err != nil {
		l.Panic().Err(err).Str("file", *fFile).Msg("cannot read export file")
	}

	var det *profanity.Classifier
	if !*fNoGate {
		det = profanity.MustNew()
	}

	if *fDryRun {
		dryRun(l, *fSource, texts, det)
		return
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		AppName: "quotary-loader",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if *fInit {
		if err := repo.EnsureSchema(ctx, st.PG); err != nil {
			l.Panic().Err(err).Msg("schema init failed")
		}
	}

	svc := service.New(st.PG, repo.NewPG(), det, service.Config{
		VoteThreshold: quotesCfg.MayInt("VOTE_THRESHOLD", 3),
		NSFWThreshold: quotesCfg.MayInt("NSFW_THRESHOLD", 1),
	})

	rep, err := svc.Ingest(ctx, *fSource, texts, rand.New(rand.NewSource(*fSeed)))
	if err != nil {
		l.Panic().Err(err).Msg("ingest failed")
	}

	l.Info().
		Str("source", rep.Source).
		Str("batch_id", rep.BatchID).
		Int("received", rep.Received).
		Int("rejected", rep.Rejected).
		Int("flagged", rep.Flagged).
		Int("inserted", rep.Inserted).
		Int("duplicates", rep.Duplicates).
		Msg("load complete")
}

// dryRun normalizes against the embedded source table and prints what a
// real load would keep; nothing is written
func dryRun(l *logger.Logger, source string, texts []string, det *profanity.Classifier) {
	reg := markup.MustLoad()
	src, ok := reg.Source(source)
	if !ok {
		l.Panic().Str("source", source).Strs("known", reg.Keys()).Msg("unknown source")
	}

	var kept, rejected, flagged int
	for _, raw := range texts {
		q, err := src.Normalize(raw)
		if err != nil {
			rejected++
			l.Debug().Err(err).Str("text", truncate(raw, 80)).Msg("rejected")
			continue
		}
		if det != nil && det.Detect(q.Text) {
			flagged++
			continue
		}
		kept++
	}

	l.Info().
		Str("source", source).
		Int("received", len(texts)).
		Int("rejected", rejected).
		Int("flagged", flagged).
		Int("kept", kept).
		Msg("dry run complete")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

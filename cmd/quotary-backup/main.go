package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"quotary/internal/platform/config"
	"quotary/internal/platform/logger"
	"quotary/internal/platform/store"

	backupsvc "quotary/internal/services/backup/service"
	"quotary/internal/services/quotes/repo"
)

func main() {
	fOnce := flag.Bool("once", false, "run a single dump pass and exit")
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	bkCfg := root.Prefix("BACKUP_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "quotary-backup",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	svc := backupsvc.New(st.PG, repo.NewPG(), backupsvc.Config{
		Dir:      bkCfg.MustString("DIR"),
		Interval: bkCfg.MayDuration("INTERVAL", time.Hour),
	})

	if *fOnce {
		if _, err := svc.RunOnce(ctx); err != nil {
			l.Panic().Err(err).Msg("backup pass failed")
		}
		return
	}

	if err := svc.Loop(ctx); err != nil && ctx.Err() == nil {
		l.Panic().Err(err).Msg("backup loop stopped")
	}
}

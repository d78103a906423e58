package service

import (
	"context"
	"math/rand"

	"github.com/google/uuid"

	"quotary/internal/core/markup"
	"quotary/internal/core/oid"
	"quotary/internal/modkit/repokit"
	perr "quotary/internal/platform/errors"
	"quotary/internal/platform/logger"
	"quotary/internal/services/quotes/domain"
)

// registry lazily falls back to the embedded source table when none
// was injected
func (s *Svc) registry() *markup.Registry {
	if s.reg == nil {
		s.reg = markup.MustLoad()
	}
	return s.reg
}

// UseRegistry overrides the source table, mainly for tests
func (s *Svc) UseRegistry(r *markup.Registry) { s.reg = r }

// Ingest implements domain.IngestPort. Texts that fail normalization
// are logged and dropped, not fatal; a batch with zero survivors is
// still a successful ingest
func (s *Svc) Ingest(ctx context.Context, source string, texts []string, rng *rand.Rand) (domain.IngestReport, error) {
	src, ok := s.registry().Source(source)
	if !ok {
		return domain.IngestReport{}, perr.InvalidArgf("unknown source %q", source)
	}

	log := logger.C(ctx)
	rep := domain.IngestReport{
		BatchID:  uuid.NewString(),
		Source:   source,
		Received: len(texts),
	}

	quotes := make([]markup.Quote, 0, len(texts))
	for _, raw := range texts {
		q, err := src.Normalize(raw)
		if err != nil {
			rep.Rejected++
			log.Debug().Str("source", source).Err(err).Msg("quote rejected")
			continue
		}
		quotes = append(quotes, q)
	}

	if s.Detector != nil && len(quotes) > 0 {
		bodies := make([]string, len(quotes))
		for i, q := range quotes {
			bodies[i] = q.Text
		}
		verdicts := s.Detector.Predict(bodies)
		kept := quotes[:0]
		for i, q := range quotes {
			if verdicts[i] {
				rep.Flagged++
				continue
			}
			kept = append(kept, q)
		}
		quotes = kept
	}

	// Shuffle before assigning ids so insertion order does not leak
	// scrape order into the feed
	if rng != nil {
		rng.Shuffle(len(quotes), func(i, j int) {
			quotes[i], quotes[j] = quotes[j], quotes[i]
		})
	}

	rows := make([]domain.QuoteRow, len(quotes))
	for i, q := range quotes {
		rows[i] = domain.QuoteRow{
			ID:          oid.New(),
			Text:        q.Text,
			Tags:        q.Tags,
			ChannelName: src.ChannelName,
			ChannelLink: src.ChannelLink,
			BatchID:     rep.BatchID,
		}
	}

	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		n, err := s.Binder.Bind(q).InsertActiveMany(ctx, rows)
		if err != nil {
			return err
		}
		rep.Inserted = n
		rep.Duplicates = len(rows) - n
		return nil
	})
	if err != nil {
		return domain.IngestReport{}, err
	}

	log.Info().
		Str("source", source).
		Str("batch_id", rep.BatchID).
		Int("received", rep.Received).
		Int("rejected", rep.Rejected).
		Int("flagged", rep.Flagged).
		Int("inserted", rep.Inserted).
		Msg("ingest complete")
	return rep, nil
}

// Package service provides the quotes service implementation
package service

import (
	"context"

	"quotary/internal/core/markup"
	"quotary/internal/core/profanity"
	"quotary/internal/modkit/repokit"
	perr "quotary/internal/platform/errors"
	"quotary/internal/platform/logger"
	"quotary/internal/services/quotes/domain"
	"quotary/internal/services/quotes/repo"
)

// Config for the quotes service
type Config struct {
	// VoteThreshold is the vote sum at which a quote finalizes.
	// Expected odd so the skew clamp splits evenly
	VoteThreshold int
	// NSFWThreshold is the flag count at which the filtered feed
	// starts hiding a quote
	NSFWThreshold int
	// ScanBatch is the page size of feed scans over the active set
	ScanBatch int
}

func (c Config) withDefaults() Config {
	if c.VoteThreshold <= 0 {
		c.VoteThreshold = 3
	}
	if c.NSFWThreshold <= 0 {
		c.NSFWThreshold = 1
	}
	if c.ScanBatch <= 0 {
		c.ScanBatch = 64
	}
	return c
}

// Svc implements domain.VoterPort, domain.FeedPort and domain.IngestPort
type Svc struct {
	DB       repokit.TxRunner
	Binder   repokit.Binder[repo.Storage]
	Detector *profanity.Classifier
	Cfg      Config

	reg *markup.Registry
}

// New constructs the quotes service. Detector may be nil; ingest then
// skips the profanity gate
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], det *profanity.Classifier, cfg Config) *Svc {
	if db == nil {
		panic("quotes.Svc requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("quotes.Svc requires a non-nil Storage binder")
	}
	return &Svc{DB: db, Binder: binder, Detector: det, Cfg: cfg.withDefaults()}
}

// Vote implements domain.VoterPort. The increment, the skew clamp and
// the finalize decision run in one transaction so concurrent voters
// serialize on the row instead of racing the read-back
func (s *Svc) Vote(ctx context.Context, id string, kind domain.VoteKind) (domain.VoteOutcome, error) {
	if !kind.Valid() {
		return domain.VoteOutcome{}, perr.InvalidArgf("unknown vote kind %q", kind)
	}

	var out domain.VoteOutcome
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)

		row, err := r.IncrementVote(ctx, id, kind)
		if err != nil {
			return err
		}

		// Skew clamp: neither side may exceed its half of the
		// threshold before the sum closes. The two clamps are
		// sequential on purpose; the second reads the first's result
		p, n := row.PositiveVotes, row.NegativeVotes
		half := s.Cfg.VoteThreshold / 2
		if p > half {
			p = s.Cfg.VoteThreshold - n
		}
		if n > half {
			n = s.Cfg.VoteThreshold - p
		}
		if p != row.PositiveVotes || n != row.NegativeVotes {
			if err := r.SetVotes(ctx, id, p, n); err != nil {
				return err
			}
		}

		if p+n >= s.Cfg.VoteThreshold {
			snap, ok, err := r.DeleteActive(ctx, id)
			if err != nil {
				return err
			}
			// ok false means a concurrent vote finalized first; the
			// quote is already archived and there is nothing to move
			if ok {
				if err := r.InsertArchived(ctx, snap); err != nil {
					return err
				}
			}
			out = domain.VoteOutcome{Alive: false, Positive: p, Negative: n}
			return nil
		}

		out = domain.VoteOutcome{Alive: true, Positive: p, Negative: n}
		return nil
	})
	if err != nil {
		return domain.VoteOutcome{}, err
	}

	if !out.Alive {
		logger.C(ctx).Debug().
			Str("quote_id", id).
			Int("positive", out.Positive).
			Int("negative", out.Negative).
			Msg("quote finalized")
	}
	return out, nil
}

// Report implements domain.VoterPort. The quote stays in the active
// set; reporting only snapshots it for moderator review
func (s *Svc) Report(ctx context.Context, id string) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		row, err := r.FindActive(ctx, id)
		if err != nil {
			return err
		}
		return r.InsertReported(ctx, row)
	})
}

// MarkNSFW implements domain.VoterPort
func (s *Svc) MarkNSFW(ctx context.Context, id string) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).IncrementNSFW(ctx, id)
	})
}

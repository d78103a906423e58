package domain

import (
	"context"
	"math/rand"
)

// VoterPort mutates vote state on active quotes
type VoterPort interface {
	// Vote applies one vote and reports whether the quote survived it
	Vote(ctx context.Context, id string, kind VoteKind) (VoteOutcome, error)
	// Report copies the quote into the reported set. Repeat reports of
	// the same quote are absorbed silently
	Report(ctx context.Context, id string) error
	// MarkNSFW bumps the not-safe-for-work counter on the quote
	MarkNSFW(ctx context.Context, id string) error
}

// FeedPort walks the active set in id order
type FeedPort interface {
	// FirstID returns the smallest active quote id
	FirstID(ctx context.Context) (string, error)
	// Next returns the first active quote with id >= start. With
	// nsfwFilter set, quotes at or over the NSFW threshold are skipped.
	// Returns ErrFeedExhausted past the end of the active set
	Next(ctx context.Context, start string, nsfwFilter bool) (FeedItem, error)
	// Advance moves a cursor one id past the given one
	Advance(id string) (string, error)
}

// IngestPort bulk-loads raw scraped quotes into the active set
type IngestPort interface {
	// Ingest normalizes texts under the named source pipeline, drops
	// rejects and flagged profanity, shuffles with rng when non-nil,
	// and inserts the remainder as one batch
	Ingest(ctx context.Context, source string, texts []string, rng *rand.Rand) (IngestReport, error)
}

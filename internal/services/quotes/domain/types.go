// Package domain holds the quote records, vote vocabulary and service
// ports shared across the quotes module
package domain

import perr "quotary/internal/platform/errors"

// VoteKind is the direction of a crowd vote
type VoteKind string

const (
	VotePositive VoteKind = "positive"
	VoteNegative VoteKind = "negative"
)

// Valid reports whether k is a known vote direction
func (k VoteKind) Valid() bool {
	return k == VotePositive || k == VoteNegative
}

// QuoteRow is one quote record as stored. The same shape backs the
// active, archived and reported sets
type QuoteRow struct {
	ID            string
	Text          string
	Tags          string
	ChannelName   string
	ChannelLink   string
	PositiveVotes int
	NegativeVotes int
	NSFWCount     int
	BatchID       string
}

// FeedItem is what the voting feed hands a caller for one quote
type FeedItem struct {
	ID          string
	Text        string
	ChannelName string
	ChannelLink string
	NSFWCount   int
}

// VoteOutcome reports the state of a quote after one vote landed.
// Alive is false once the quote finalized out of the active set
type VoteOutcome struct {
	Alive    bool
	Positive int
	Negative int
}

// IngestReport summarizes one bulk load pass
type IngestReport struct {
	BatchID    string
	Source     string
	Received   int
	Rejected   int
	Flagged    int
	Inserted   int
	Duplicates int
}

// ErrFeedExhausted marks a feed scan that ran past the last active
// quote. Callers restart from the first id when they see it
var ErrFeedExhausted = perr.New(perr.ErrorCodeNotFound, "no active quotes at or after cursor")

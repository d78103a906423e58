// Package http provides HTTP transport for the quotes API
package http

import (
	"errors"
	stdhttp "net/http"

	"quotary/internal/modkit/httpkit"
	"quotary/internal/services/quotes/domain"
)

// Register mounts quote endpoints on the given router. POST with JSON
// bodies throughout; the feed is stateful per client via the cursor the
// client carries, never via server-side sessions
func Register(r httpkit.Router, voter domain.VoterPort, feed domain.FeedPort) {
	h := &handlers{voter: voter, feed: feed}

	httpkit.PostJSON[domain.NextInput](r, "/next", h.next)
	httpkit.PostJSON[domain.VoteInput](r, "/vote", h.vote)
	httpkit.PostJSON[domain.QuoteRefInput](r, "/report", h.report)
	httpkit.PostJSON[domain.QuoteRefInput](r, "/nsfw", h.nsfw)
	httpkit.PostJSON[domain.CursorInput](r, "/advance", h.advance)
}

type handlers struct {
	voter domain.VoterPort
	feed  domain.FeedPort
}

// NextResp pairs the served quote with the cursor to vote with and the
// cursor to continue from
type NextResp struct {
	Quote  domain.QuoteOut `json:"quote"`
	Cursor string          `json:"cursor"`
}

func (h *handlers) next(r *stdhttp.Request, in domain.NextInput) (any, error) {
	ctx := r.Context()

	start := in.Cursor
	if start == "" {
		var err error
		start, err = h.feed.FirstID(ctx)
		if err != nil {
			return nil, err
		}
	}

	item, err := h.feed.Next(ctx, start, in.NSFWFilter)
	if errors.Is(err, domain.ErrFeedExhausted) && in.Cursor != "" {
		// Ran off the end of a stale cursor; wrap to the start
		start, err = h.feed.FirstID(ctx)
		if err != nil {
			return nil, err
		}
		item, err = h.feed.Next(ctx, start, in.NSFWFilter)
	}
	if err != nil {
		return nil, err
	}

	return NextResp{
		Quote: domain.QuoteOut{
			ID:          item.ID,
			Text:        item.Text,
			ChannelName: item.ChannelName,
			ChannelLink: item.ChannelLink,
			NSFW:        item.NSFWCount > 0,
		},
		Cursor: item.ID,
	}, nil
}

func (h *handlers) vote(r *stdhttp.Request, in domain.VoteInput) (any, error) {
	out, err := h.voter.Vote(r.Context(), in.ID, domain.VoteKind(in.Vote))
	if err != nil {
		return nil, err
	}
	return domain.VoteOut{Alive: out.Alive, Positive: out.Positive, Negative: out.Negative}, nil
}

func (h *handlers) report(r *stdhttp.Request, in domain.QuoteRefInput) (any, error) {
	if err := h.voter.Report(r.Context(), in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "reported"}, nil
}

func (h *handlers) nsfw(r *stdhttp.Request, in domain.QuoteRefInput) (any, error) {
	if err := h.voter.MarkNSFW(r.Context(), in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"status": "marked"}, nil
}

func (h *handlers) advance(_ *stdhttp.Request, in domain.CursorInput) (any, error) {
	next, err := h.feed.Advance(in.Cursor)
	if err != nil {
		return nil, err
	}
	return domain.CursorOut{Cursor: next}, nil
}

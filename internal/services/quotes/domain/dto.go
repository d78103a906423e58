package domain

// NextInput asks for the next quote at or after a cursor. An empty
// cursor starts from the beginning of the active set
type NextInput struct {
	Cursor     string `json:"cursor" validate:"omitempty,len=24,hexadecimal,lowercase"`
	NSFWFilter bool   `json:"nsfw_filter"`
}

// QuoteOut is the feed response payload
type QuoteOut struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	ChannelName string `json:"channel_name"`
	ChannelLink string `json:"channel_link"`
	NSFW        bool   `json:"nsfw"`
}

// VoteInput applies one vote to a quote
type VoteInput struct {
	ID   string `json:"id" validate:"required,len=24,hexadecimal,lowercase"`
	Vote string `json:"vote" validate:"required,oneof=positive negative"`
}

// VoteOut reports post-vote state. Alive false tells the client the
// quote left the active set and its cursor should move on
type VoteOut struct {
	Alive    bool `json:"alive"`
	Positive int  `json:"positive_votes"`
	Negative int  `json:"negative_votes"`
}

// QuoteRefInput names a quote by id
type QuoteRefInput struct {
	ID string `json:"id" validate:"required,len=24,hexadecimal,lowercase"`
}

// CursorInput names a cursor position
type CursorInput struct {
	Cursor string `json:"cursor" validate:"required,len=24,hexadecimal,lowercase"`
}

// CursorOut returns an advanced cursor
type CursorOut struct {
	Cursor string `json:"cursor"`
}

func (r QuoteRow) FeedItem() FeedItem {
	return FeedItem{
		ID:          r.ID,
		Text:        r.Text,
		ChannelName: r.ChannelName,
		ChannelLink: r.ChannelLink,
		NSFWCount:   r.NSFWCount,
	}
}

package domain

// PostMessageCommand asks the board to append one message to the feed.
// Content is stored as given: the board never rejects empty text.
type PostMessageCommand struct {
	Content string
}

// ClearFeedCommand asks the board to drop every message at once.
type ClearFeedCommand struct {
	RequestedBy *Session
}

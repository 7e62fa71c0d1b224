// Package domain contains core concepts of the message board.
// This file defines the Message record.
// Messages are immutable and carry no author field: the feed is anonymous.
package domain

import "time"

// Message is one entry of the append-only feed. ID is assigned by the store
// on insert and increases monotonically, so ascending ID is insertion order.
type Message struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}

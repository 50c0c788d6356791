// Package intervention records follow-up actions taken for at-risk students.
//
// The ledger is append-only: entries are stamped with server time on
// arrival and never mutated or deleted. Listing returns entries in
// insertion order. The ledger has no data dependency on the risk model;
// the two are independent failure domains.
package intervention

import (
	"context"
	"time"
)

// Entry is one recorded intervention (email, SMS, tutoring referral, ...).
// Timestamp is stamped server-side in UTC.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Student   string         `json:"student"`
	Action    string         `json:"action"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta"`
}

// Store persists intervention entries.
// Implementations must serialize appends so concurrent callers cannot
// lose entries, and must preserve insertion order in List.
type Store interface {
	Record(ctx context.Context, entry *Entry) error
	List(ctx context.Context) ([]*Entry, error)
}

// Package dedupe records which provider event ids have already been handed
// to the message bus. The backend is chosen once at startup; the handler
// only sees the Store interface.
package dedupe

import "context"

// Store is the duplicate-suppression contract.
//
// Seen reports whether id has a recorded marker. A miss is (false, nil);
// a lookup failure is (false, err) and must not be treated as a miss.
//
// MarkSeen records id as handed to the bus. Shared backends implement it as
// an atomic set-if-absent, so concurrent markers for the same id write one
// record. The caller marks only after a successful publish.
type Store interface {
	Seen(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

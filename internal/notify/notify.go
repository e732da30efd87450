// Package notify is the advisory realtime channel: session snapshots are
// fanned out to interested clients on a best-effort basis. Delivery failures
// are ignored so the authoritative update path never blocks on a slow
// spectator.
package notify

import "github.com/oni-tag/game-backend/internal/game"

type Notifier interface {
	SessionChanged(sessionID string, s game.Session)
}

// Nop discards every notification. Used in tests and when no realtime feed
// is wanted.
type Nop struct{}

func (Nop) SessionChanged(string, game.Session) {}

// Package stats keeps long-lived per-user career statistics. Unlike session
// blobs these never expire; they are written fire-and-forget at session end
// and a write failure must never affect gameplay.
package stats

import (
	"context"
	"time"
)

// PlayerStats is one user's lifetime record across sessions.
type PlayerStats struct {
	UserID               string    `json:"userId" gorm:"primaryKey;column:user_id"`
	GamesPlayed          int       `json:"gamesPlayed"`
	RunnerWins           int       `json:"runnerWins"`
	ChaserWins           int       `json:"chaserWins"`
	TotalTags            int       `json:"totalTags"`
	TotalSurvivedSeconds float64   `json:"totalSurvivedSeconds"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Delta is one session's contribution to a user's record.
type Delta struct {
	Won             bool
	WasChaser       bool
	Tags            int
	SurvivedSeconds float64
}

type Store interface {
	// Apply folds delta into the user's stats, creating the record on first
	// sight.
	Apply(ctx context.Context, userID string, delta Delta) error
	Get(ctx context.Context, userID string) (PlayerStats, error)
}

func (s *PlayerStats) apply(d Delta, now time.Time) {
	s.GamesPlayed++
	if d.Won {
		if d.WasChaser {
			s.ChaserWins++
		} else {
			s.RunnerWins++
		}
	}
	s.TotalTags += d.Tags
	s.TotalSurvivedSeconds += d.SurvivedSeconds
	s.UpdatedAt = now
}

package game

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrInvalidConfig = errors.New("invalid session config")

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

const (
	MinPlayers = 4
	MaxPlayers = 20
)

// AllowedRoundDurations and AllowedRounds are the only values clients may
// request; anything else is rejected at session creation.
var AllowedRoundDurations = []int{180, 300, 420, 600}
var AllowedRounds = []int{1, 2, 3}

type Config struct {
	TotalPlayers         int `json:"totalPlayers"`
	RoundDurationSeconds int `json:"roundDurationSeconds"`
	Rounds               int `json:"rounds"`
}

func (c Config) Validate() error {
	if c.TotalPlayers < MinPlayers || c.TotalPlayers > MaxPlayers {
		return fmt.Errorf("%w: totalPlayers %d", ErrInvalidConfig, c.TotalPlayers)
	}
	if !slices.Contains(AllowedRoundDurations, c.RoundDurationSeconds) {
		return fmt.Errorf("%w: roundDurationSeconds %d", ErrInvalidConfig, c.RoundDurationSeconds)
	}
	if !slices.Contains(AllowedRounds, c.Rounds) {
		return fmt.Errorf("%w: rounds %d", ErrInvalidConfig, c.Rounds)
	}
	return nil
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Player struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	IsAI            bool    `json:"isAI"`
	IsChaser        bool    `json:"isChaser"`
	Position        Vec3    `json:"position"`
	Velocity        Vec3    `json:"velocity"`
	Yaw             float64 `json:"yaw"`
	Pitch           float64 `json:"pitch"`
	Fuel            float64 `json:"fuel"`
	OnSurface       bool    `json:"isOnSurface"`
	Dashing         bool    `json:"isDashing"`
	Propelling      bool    `json:"isPropelling"`
	SurvivedSeconds float64 `json:"survivedTimeSeconds"`
	Tagged          bool    `json:"wasTagged"`
	TagCount        int     `json:"tagCount"`
	AbilityCooldown float64 `json:"abilityCooldown"`
}

// Session is the authoritative record for one match, stored as a single blob.
// InitialChaserIDs is set once when play begins and never mutated afterward;
// it is the ground truth for end-game attribution even if IsChaser flags
// drift during play.
type Session struct {
	ID                   string     `json:"id"`
	OwnerID              string     `json:"ownerId"`
	Status               Status     `json:"status"`
	Config               Config     `json:"config"`
	Players              []Player   `json:"players"`
	CreatedAt            time.Time  `json:"createdAt"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	LastOwnerHeartbeatAt *time.Time `json:"lastOwnerHeartbeatAt,omitempty"`
	InitialChaserIDs     []string   `json:"initialChaserIds,omitempty"`
}

func (s *Session) IsFull() bool {
	return len(s.Players) >= s.Config.TotalPlayers
}

// FindPlayer returns the index of the player with the given id, or -1.
func (s *Session) FindPlayer(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPlayerByName returns the index of the first player with the given
// username, or -1.
func (s *Session) FindPlayerByName(username string) int {
	for i := range s.Players {
		if s.Players[i].Username == username {
			return i
		}
	}
	return -1
}

func (s *Session) OwnerUsername() string {
	if i := s.FindPlayer(s.OwnerID); i >= 0 {
		return s.Players[i].Username
	}
	return ""
}

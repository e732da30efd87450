package game

import (
	"slices"
	"sort"
)

const (
	TeamRunners = "runners"
	TeamOni     = "oni"
)

type ResultEntry struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	IsAI            bool    `json:"isAI"`
	SurvivedSeconds float64 `json:"survivedTimeSeconds"`
	TagCount        int     `json:"tagCount"`
}

type Results struct {
	TeamWinner string        `json:"teamWinner"`
	Players    []ResultEntry `json:"players"`
}

// ComputeResults derives the end-of-match outcome from the stored session.
// Attribution uses InitialChaserIDs, not the live IsChaser flags: a chaser
// who was tagged back into a runner still scores on the oni side. Pure and
// deterministic, so calling it twice on the same session yields identical
// results.
func ComputeResults(s Session) Results {
	initialChaser := func(id string) bool {
		return slices.Contains(s.InitialChaserIDs, id)
	}

	var survivors []Player // never tagged, never an initial chaser
	var chasers []Player
	for _, p := range s.Players {
		switch {
		case initialChaser(p.ID):
			chasers = append(chasers, p)
		case !p.Tagged:
			survivors = append(survivors, p)
		}
	}

	if len(survivors) > 0 {
		sort.SliceStable(survivors, func(i, j int) bool {
			return survivors[i].SurvivedSeconds > survivors[j].SurvivedSeconds
		})
		return Results{TeamWinner: TeamRunners, Players: entries(survivors)}
	}

	// Oni won: rank by tags, then by who was exposed as a chaser longest
	// (lower survived time means they chased from the start).
	sort.SliceStable(chasers, func(i, j int) bool {
		if chasers[i].TagCount != chasers[j].TagCount {
			return chasers[i].TagCount > chasers[j].TagCount
		}
		return chasers[i].SurvivedSeconds < chasers[j].SurvivedSeconds
	})
	return Results{TeamWinner: TeamOni, Players: entries(chasers)}
}

func entries(players []Player) []ResultEntry {
	out := make([]ResultEntry, 0, len(players))
	for _, p := range players {
		out = append(out, ResultEntry{
			ID:              p.ID,
			Username:        p.Username,
			IsAI:            p.IsAI,
			SurvivedSeconds: p.SurvivedSeconds,
			TagCount:        p.TagCount,
		})
	}
	return out
}

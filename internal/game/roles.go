package game

import "math/rand"

// RequiredChasers is the chaser head count for a session of n players.
func RequiredChasers(n int) int {
	return max(1, n/3)
}

// AssignRoles returns a copy of players with IsChaser recomputed from
// scratch. The policy guarantees that whenever two or more humans are
// present, at least one human chases and at least one human runs; with one
// or zero humans every player has the same odds. Deterministic for a given
// rng, and safe to re-run (all flags are reset first).
func AssignRoles(players []Player, rng *rand.Rand) []Player {
	out := make([]Player, len(players))
	copy(out, players)
	for i := range out {
		out[i].IsChaser = false
	}
	n := len(out)
	if n == 0 {
		return out
	}
	required := RequiredChasers(n)

	var humans, ais []int
	for i := range out {
		if out[i].IsAI {
			ais = append(ais, i)
		} else {
			humans = append(humans, i)
		}
	}

	if len(humans) < 2 {
		// Solo human (or all-AI): uniform draw over the whole pool keeps
		// the outcome unpredictable for that one player.
		for _, i := range rng.Perm(n)[:required] {
			out[i].IsChaser = true
		}
		return out
	}

	// Two or more humans: never all-human-chaser or all-human-runner.
	rng.Shuffle(len(humans), func(i, j int) {
		humans[i], humans[j] = humans[j], humans[i]
	})
	humanChasers := min(max(required, 1), len(humans)-1)
	for _, i := range humans[:humanChasers] {
		out[i].IsChaser = true
	}

	// Any remaining slots come from AI only; the guaranteed human runner is
	// never demoted.
	if remaining := required - humanChasers; remaining > 0 {
		rng.Shuffle(len(ais), func(i, j int) {
			ais[i], ais[j] = ais[j], ais[i]
		})
		for _, i := range ais[:min(remaining, len(ais))] {
			out[i].IsChaser = true
		}
	}
	return out
}

// ChaserIDs collects the ids of every player currently flagged as chaser,
// in player order.
func ChaserIDs(players []Player) []string {
	var ids []string
	for i := range players {
		if players[i].IsChaser {
			ids = append(ids, players[i].ID)
		}
	}
	return ids
}

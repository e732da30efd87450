package game

import (
	"fmt"
	"math/rand"
	"testing"
)

func makePlayers(humans, ais int) []Player {
	var out []Player
	for i := 0; i < humans; i++ {
		out = append(out, Player{ID: fmt.Sprintf("h%d", i), Username: fmt.Sprintf("human%d", i)})
	}
	for i := 0; i < ais; i++ {
		out = append(out, Player{ID: fmt.Sprintf("a%d", i), Username: fmt.Sprintf("AI %d", i), IsAI: true})
	}
	return out
}

func countChasers(players []Player) (humans, ais int) {
	for _, p := range players {
		if !p.IsChaser {
			continue
		}
		if p.IsAI {
			ais++
		} else {
			humans++
		}
	}
	return
}

func TestRequiredChasers(t *testing.T) {
	cases := []struct{ n, want int }{
		{1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {6, 2}, {9, 3}, {12, 4}, {20, 6},
	}
	for _, tc := range cases {
		if got := RequiredChasers(tc.n); got != tc.want {
			t.Fatalf("RequiredChasers(%d): got %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestAssignRoles_MultiHumanGuarantee(t *testing.T) {
	cases := []struct {
		name   string
		humans int
		ais    int
	}{
		{"2 humans 2 ai", 2, 2},
		{"2 humans 10 ai", 2, 10},
		{"3 humans 3 ai", 3, 3},
		{"4 humans 0 ai", 4, 0},
		{"5 humans 15 ai", 5, 15},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for seed := int64(0); seed < 50; seed++ {
				rng := rand.New(rand.NewSource(seed))
				players := makePlayers(tc.humans, tc.ais)
				got := AssignRoles(players, rng)

				total := 0
				for _, p := range got {
					if p.IsChaser {
						total++
					}
				}
				required := RequiredChasers(len(players))
				if total != required {
					t.Fatalf("seed %d: chaser count %d, want %d", seed, total, required)
				}

				hc, _ := countChasers(got)
				if hc < 1 {
					t.Fatalf("seed %d: no human chaser", seed)
				}
				if hc >= tc.humans {
					t.Fatalf("seed %d: no human runner left", seed)
				}
			}
		})
	}
}

func TestAssignRoles_SoloHumanUsesWholePool(t *testing.T) {
	// With one human and 8 AI, over many seeds the human must sometimes be
	// chaser and sometimes not; a human-only policy would pin the outcome.
	humanChaser, humanRunner := 0, 0
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		got := AssignRoles(makePlayers(1, 8), rng)
		if got[0].IsChaser {
			humanChaser++
		} else {
			humanRunner++
		}
	}
	if humanChaser == 0 || humanRunner == 0 {
		t.Fatalf("solo human never varied: chaser=%d runner=%d", humanChaser, humanRunner)
	}
}

func TestAssignRoles_AllAI(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := AssignRoles(makePlayers(0, 6), rng)
	total := 0
	for _, p := range got {
		if p.IsChaser {
			total++
		}
	}
	if total != 2 {
		t.Fatalf("6 AI players: chaser count %d, want 2", total)
	}
}

func TestAssignRoles_ResetsStaleFlags(t *testing.T) {
	players := makePlayers(3, 3)
	for i := range players {
		players[i].IsChaser = true // stale flags from a previous pass
	}
	rng := rand.New(rand.NewSource(1))
	got := AssignRoles(players, rng)

	total := 0
	for _, p := range got {
		if p.IsChaser {
			total++
		}
	}
	if total != RequiredChasers(len(players)) {
		t.Fatalf("re-run did not reset flags: %d chasers", total)
	}
}

func TestAssignRoles_DeterministicForSeed(t *testing.T) {
	a := AssignRoles(makePlayers(4, 4), rand.New(rand.NewSource(42)))
	b := AssignRoles(makePlayers(4, 4), rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].IsChaser != b[i].IsChaser {
			t.Fatalf("same seed produced different roles at %d", i)
		}
	}
}

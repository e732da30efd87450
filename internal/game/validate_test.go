package game

import (
	"errors"
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestApplyUpdate_RejectsMalformedNumbers(t *testing.T) {
	cases := []struct {
		name string
		upd  StateUpdate
	}{
		{name: "NaN position", upd: StateUpdate{Position: &Vec3{X: math.NaN()}}},
		{name: "Inf position", upd: StateUpdate{Position: &Vec3{Z: math.Inf(1)}}},
		{name: "NaN velocity", upd: StateUpdate{Velocity: &Vec3{Y: math.NaN()}}},
		{name: "-Inf velocity", upd: StateUpdate{Velocity: &Vec3{X: math.Inf(-1)}}},
		{name: "NaN yaw", upd: StateUpdate{Yaw: f64(math.NaN())}},
		{name: "Inf pitch", upd: StateUpdate{Pitch: f64(math.Inf(1))}},
		{name: "NaN fuel", upd: StateUpdate{Fuel: f64(math.NaN())}},
		{name: "Inf survived time", upd: StateUpdate{SurvivedSeconds: f64(math.Inf(1))}},
		{name: "NaN cooldown", upd: StateUpdate{AbilityCooldown: f64(math.NaN())}},
	}

	prev := Player{ID: "p1", Fuel: 50, Position: Vec3{X: 1, Y: 2, Z: 3}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyUpdate(prev, tc.upd)
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("want ErrInvalidState, got %v", err)
			}
			if got != prev {
				t.Fatalf("rejected update must not touch the record: %+v", got)
			}
		})
	}
}

func TestApplyUpdate_MergesOnlyPresentFields(t *testing.T) {
	prev := Player{
		ID:       "p1",
		Username: "alice",
		Position: Vec3{X: 1, Y: 2, Z: 3},
		Fuel:     40,
		TagCount: 2,
	}

	next, err := ApplyUpdate(prev, StateUpdate{Fuel: f64(55)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if next.Fuel != 55 {
		t.Fatalf("fuel: got %v, want 55", next.Fuel)
	}
	if next.Position != prev.Position || next.TagCount != prev.TagCount {
		t.Fatalf("unspecified fields changed: %+v", next)
	}
}

func TestApplyUpdate_ClampsVelocityMagnitude(t *testing.T) {
	prev := Player{ID: "p1"}
	next, err := ApplyUpdate(prev, StateUpdate{Velocity: &Vec3{X: 10000, Y: 0, Z: 0}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	mag := math.Sqrt(next.Velocity.X*next.Velocity.X + next.Velocity.Y*next.Velocity.Y + next.Velocity.Z*next.Velocity.Z)
	if math.Abs(mag-MaxSpeed) > 1e-9 {
		t.Fatalf("velocity magnitude: got %v, want %v", mag, MaxSpeed)
	}
	if next.Velocity.X <= 0 || next.Velocity.Y != 0 || next.Velocity.Z != 0 {
		t.Fatalf("direction changed: %+v", next.Velocity)
	}
}

func TestClamping_IsIdempotent(t *testing.T) {
	positions := []Vec3{
		{X: 99999, Y: -99999, Z: 0},
		{X: 10000, Y: 10000, Z: 10000},
		{X: -3, Y: 7, Z: 9},
	}
	for _, v := range positions {
		once := ClampPosition(v)
		if twice := ClampPosition(once); twice != once {
			t.Fatalf("position clamp not idempotent: %+v vs %+v", once, twice)
		}
	}

	velocities := []Vec3{
		{X: 10000, Y: 0, Z: 0},
		{X: 300, Y: 300, Z: 300},
		{X: 0, Y: 0, Z: 0},
	}
	for _, v := range velocities {
		once := ClampVelocity(v)
		twice := ClampVelocity(once)
		if math.Abs(twice.X-once.X) > 1e-9 || math.Abs(twice.Y-once.Y) > 1e-9 || math.Abs(twice.Z-once.Z) > 1e-9 {
			t.Fatalf("velocity clamp not idempotent: %+v vs %+v", once, twice)
		}
	}

	scalars := []struct {
		name  string
		clamp func(float64) float64
		in    []float64
	}{
		{"yaw", ClampYaw, []float64{-math.Pi, math.Pi, 4, -4, 0.5}},
		{"pitch", ClampPitch, []float64{-math.Pi, math.Pi, 1.2, -1.2}},
		{"fuel", ClampFuel, []float64{-5, 0, 55, 101}},
		{"cooldown", ClampCooldown, []float64{-1, 0, 15, 31}},
	}
	for _, tc := range scalars {
		for _, v := range tc.in {
			once := tc.clamp(v)
			if twice := tc.clamp(once); twice != once {
				t.Fatalf("%s clamp not idempotent for %v: %v vs %v", tc.name, v, once, twice)
			}
		}
	}
}

func TestClampYaw_HalfOpenInterval(t *testing.T) {
	if got := ClampYaw(-math.Pi); got != math.Pi {
		t.Fatalf("yaw -pi should map to pi, got %v", got)
	}
	if got := ClampYaw(7); got != math.Pi {
		t.Fatalf("yaw 7 should clamp to pi, got %v", got)
	}
}

func TestClampPitch_StaysInsideOpenInterval(t *testing.T) {
	for _, v := range []float64{math.Pi, -math.Pi, math.Pi / 2, -math.Pi / 2} {
		got := ClampPitch(v)
		if got <= -math.Pi/2 || got >= math.Pi/2 {
			t.Fatalf("pitch %v clamped to %v, outside (-pi/2, pi/2)", v, got)
		}
	}
}

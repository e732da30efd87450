package game

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidState = errors.New("invalid player state")

const (
	// WorldBound is the half-extent of the playable cube, per axis.
	WorldBound = 10000.0
	// MaxSpeed caps the velocity magnitude; direction is preserved.
	MaxSpeed = 500.0
	MaxFuel  = 100.0
	// MaxAbilityCooldown is the longest cooldown any ability can impose.
	MaxAbilityCooldown = 30.0
)

// maxPitch keeps pitch strictly inside (-pi/2, pi/2) so look-direction math
// never hits the poles.
const maxPitch = math.Pi/2 - 1e-6

// StateUpdate is a partial player-state push. Nil fields keep their previous
// value; present fields are validated and clamped before merging.
type StateUpdate struct {
	Position        *Vec3    `json:"position,omitempty"`
	Velocity        *Vec3    `json:"velocity,omitempty"`
	Yaw             *float64 `json:"yaw,omitempty"`
	Pitch           *float64 `json:"pitch,omitempty"`
	Fuel            *float64 `json:"fuel,omitempty"`
	OnSurface       *bool    `json:"isOnSurface,omitempty"`
	Dashing         *bool    `json:"isDashing,omitempty"`
	Propelling      *bool    `json:"isPropelling,omitempty"`
	SurvivedSeconds *float64 `json:"survivedTimeSeconds,omitempty"`
	Tagged          *bool    `json:"wasTagged,omitempty"`
	TagCount        *int     `json:"tagCount,omitempty"`
	AbilityCooldown *float64 `json:"abilityCooldown,omitempty"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clampRange(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func ClampPosition(v Vec3) Vec3 {
	return Vec3{
		X: clampRange(v.X, -WorldBound, WorldBound),
		Y: clampRange(v.Y, -WorldBound, WorldBound),
		Z: clampRange(v.Z, -WorldBound, WorldBound),
	}
}

// ClampVelocity rescales the vector uniformly so its magnitude never exceeds
// MaxSpeed. Direction is untouched.
func ClampVelocity(v Vec3) Vec3 {
	mag := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if mag <= MaxSpeed || mag == 0 {
		return v
	}
	scale := MaxSpeed / mag
	return Vec3{X: v.X * scale, Y: v.Y * scale, Z: v.Z * scale}
}

// ClampYaw constrains yaw to (-pi, pi].
func ClampYaw(yaw float64) float64 {
	yaw = clampRange(yaw, -math.Pi, math.Pi)
	if yaw == -math.Pi {
		return math.Pi
	}
	return yaw
}

// ClampPitch constrains pitch to (-pi/2, pi/2).
func ClampPitch(pitch float64) float64 {
	return clampRange(pitch, -maxPitch, maxPitch)
}

func ClampFuel(fuel float64) float64 {
	return clampRange(fuel, 0, MaxFuel)
}

func ClampCooldown(cd float64) float64 {
	return clampRange(cd, 0, MaxAbilityCooldown)
}

// ApplyUpdate validates u against p and returns the merged record. Malformed
// numbers (NaN, +/-Inf) reject the whole update; out-of-range but finite
// values are clamped into bounds. p itself is never mutated, so a rejected
// update leaves no partial writes behind.
func ApplyUpdate(p Player, u StateUpdate) (Player, error) {
	if u.Position != nil && !finite(u.Position.X, u.Position.Y, u.Position.Z) {
		return p, fmt.Errorf("%w: position", ErrInvalidState)
	}
	if u.Velocity != nil && !finite(u.Velocity.X, u.Velocity.Y, u.Velocity.Z) {
		return p, fmt.Errorf("%w: velocity", ErrInvalidState)
	}
	if u.Yaw != nil && !finite(*u.Yaw) {
		return p, fmt.Errorf("%w: yaw", ErrInvalidState)
	}
	if u.Pitch != nil && !finite(*u.Pitch) {
		return p, fmt.Errorf("%w: pitch", ErrInvalidState)
	}
	if u.Fuel != nil && !finite(*u.Fuel) {
		return p, fmt.Errorf("%w: fuel", ErrInvalidState)
	}
	if u.SurvivedSeconds != nil && !finite(*u.SurvivedSeconds) {
		return p, fmt.Errorf("%w: survivedTimeSeconds", ErrInvalidState)
	}
	if u.AbilityCooldown != nil && !finite(*u.AbilityCooldown) {
		return p, fmt.Errorf("%w: abilityCooldown", ErrInvalidState)
	}

	next := p
	if u.Position != nil {
		next.Position = ClampPosition(*u.Position)
	}
	if u.Velocity != nil {
		next.Velocity = ClampVelocity(*u.Velocity)
	}
	if u.Yaw != nil {
		next.Yaw = ClampYaw(*u.Yaw)
	}
	if u.Pitch != nil {
		next.Pitch = ClampPitch(*u.Pitch)
	}
	if u.Fuel != nil {
		next.Fuel = ClampFuel(*u.Fuel)
	}
	if u.OnSurface != nil {
		next.OnSurface = *u.OnSurface
	}
	if u.Dashing != nil {
		next.Dashing = *u.Dashing
	}
	if u.Propelling != nil {
		next.Propelling = *u.Propelling
	}
	if u.SurvivedSeconds != nil {
		next.SurvivedSeconds = math.Max(*u.SurvivedSeconds, 0)
	}
	if u.Tagged != nil {
		next.Tagged = *u.Tagged
	}
	if u.TagCount != nil {
		next.TagCount = max(*u.TagCount, 0)
	}
	if u.AbilityCooldown != nil {
		next.AbilityCooldown = ClampCooldown(*u.AbilityCooldown)
	}
	return next, nil
}

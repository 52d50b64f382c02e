package model

import (
	"fmt"
	"math"
)

// Angle holds Euler angles in degrees. Positive pitch looks down.
type Angle struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// String formats the angle the way map files store it ("pitch yaw roll").
func (a Angle) String() string {
	return formatTriple(a.Pitch, a.Yaw, a.Roll)
}

// ParseAngle parses "pitch yaw roll".
func ParseAngle(s string) (Angle, error) {
	p, y, r, err := parseTriple(s)
	if err != nil {
		return Angle{}, fmt.Errorf("parsing angle %q: %w", s, err)
	}
	return Angle{p, y, r}, nil
}

// AngleVectors returns the forward, right and up unit vectors for a.
func AngleVectors(a Angle) (forward, right, up Vector) {
	sp, cp := math.Sincos(a.Pitch * math.Pi / 180)
	sy, cy := math.Sincos(a.Yaw * math.Pi / 180)
	sr, cr := math.Sincos(a.Roll * math.Pi / 180)

	forward = Vector{cp * cy, cp * sy, -sp}
	right = Vector{
		-sr*sp*cy + cr*sy,
		-sr*sp*sy - cr*cy,
		-sr * cp,
	}
	up = Vector{
		cr*sp*cy + sr*sy,
		cr*sp*sy - sr*cy,
		cr * cp,
	}
	return forward, right, up
}

// VectorAngles returns the pitch and yaw that point along dir. Roll is zero.
func VectorAngles(dir Vector) Angle {
	if dir.X == 0 && dir.Y == 0 {
		if dir.Z > 0 {
			return Angle{Pitch: 270}
		}
		return Angle{Pitch: 90}
	}

	yaw := math.Atan2(dir.Y, dir.X) * 180 / math.Pi
	if yaw < 0 {
		yaw += 360
	}
	pitch := math.Atan2(-dir.Z, math.Hypot(dir.X, dir.Y)) * 180 / math.Pi
	if pitch < 0 {
		pitch += 360
	}
	return Angle{Pitch: pitch, Yaw: yaw}
}

package world

import (
	"math"

	"github.com/udisondev/portalgo/internal/model"
)

// distEpsilon keeps sweeps from ending exactly on a surface.
const distEpsilon = 0.03125

// TraceResult is the outcome of a line or hull sweep.
type TraceResult struct {
	// Fraction of the sweep completed, 1 when nothing was hit.
	Fraction float64
	EndPos   model.Vector
	Normal   model.Vector
	// Entity is the solid entity hit, nil for world geometry or no hit.
	Entity *Entity
}

// Hit reports whether the sweep stopped early.
func (t TraceResult) Hit() bool { return t.Fraction < 1 }

// TraceLine sweeps a point from start to end.
func (w *World) TraceLine(start, end model.Vector, ignore *Entity) TraceResult {
	return w.TraceHull(start, end, model.Vector{}, model.Vector{}, ignore)
}

// TraceHull sweeps a box (mins/maxs relative to its center) from start to
// end against brushes and solid entities. Entities owned by ignore, and
// ignore's owner, are skipped.
func (w *World) TraceHull(start, end, mins, maxs model.Vector, ignore *Entity) TraceResult {
	delta := end.Sub(start)
	length := delta.Length()
	best := TraceResult{Fraction: 1, EndPos: end}
	if length == 0 {
		return best
	}

	try := func(bmin, bmax model.Vector, hit *Entity) {
		// Minkowski sum: sweeping a box equals sweeping a point against the
		// target grown by the box extents.
		t, n, ok := sweepPoint(start, delta, bmin.Sub(maxs), bmax.Sub(mins))
		if !ok || t >= best.Fraction {
			return
		}
		best.Fraction = t
		best.Normal = n
		best.Entity = hit
	}

	for _, b := range w.brushes {
		try(b.Mins, b.Maxs, nil)
	}
	for _, e := range w.order {
		if !w.shouldCollide(ignore, e) {
			continue
		}
		bmin, bmax := e.AbsBox()
		try(bmin, bmax, e)
	}

	if best.Fraction < 1 {
		best.Fraction = math.Max(0, (best.Fraction*length-distEpsilon)/length)
		best.EndPos = start.Add(delta.Scale(best.Fraction))
	}
	return best
}

func (w *World) shouldCollide(mover, other *Entity) bool {
	if other.IsRemoved() || !other.IsSolid() || other == mover {
		return false
	}
	if mover == nil {
		return true
	}
	if other.owner == mover.Handle() || mover.owner == other.Handle() {
		return false
	}
	if mover.collisionGroup == CollisionGroupProjectile && other.collisionGroup == CollisionGroupProjectile {
		return false
	}
	if mover.collisionGroup == CollisionGroupDebris || other.collisionGroup == CollisionGroupDebris {
		return false
	}
	return true
}

// sweepPoint intersects the segment start..start+delta with a box using the
// slab method. Starting inside the box is not a hit.
func sweepPoint(start, delta, bmin, bmax model.Vector) (float64, model.Vector, bool) {
	s := [3]float64{start.X, start.Y, start.Z}
	d := [3]float64{delta.X, delta.Y, delta.Z}
	lo := [3]float64{bmin.X, bmin.Y, bmin.Z}
	hi := [3]float64{bmax.X, bmax.Y, bmax.Z}

	enter, exit := math.Inf(-1), math.Inf(1)
	var normal [3]float64
	for i := range 3 {
		if math.Abs(d[i]) < 1e-12 {
			if s[i] < lo[i] || s[i] > hi[i] {
				return 0, model.Vector{}, false
			}
			continue
		}
		t1 := (lo[i] - s[i]) / d[i]
		t2 := (hi[i] - s[i]) / d[i]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > enter {
			enter = t1
			normal = [3]float64{}
			normal[i] = sign
		}
		if t2 < exit {
			exit = t2
		}
		if enter > exit {
			return 0, model.Vector{}, false
		}
	}
	if enter < 0 || enter > 1 {
		return 0, model.Vector{}, false
	}
	return enter, model.Vector{X: normal[0], Y: normal[1], Z: normal[2]}, true
}

func boxesOverlap(amin, amax, bmin, bmax model.Vector) bool {
	return amin.X <= bmax.X && amax.X >= bmin.X &&
		amin.Y <= bmax.Y && amax.Y >= bmin.Y &&
		amin.Z <= bmax.Z && amax.Z >= bmin.Z
}

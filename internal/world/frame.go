package world

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/udisondev/portalgo/internal/model"
)

// Frame advances the simulation by dt seconds:
// thinks, movement and collisions, touches, entity I/O, cleanup.
// Entities created during a frame first think on the next one.
func (w *World) Frame(dt float64) {
	w.clock.advance(dt)
	now := w.clock.now

	snapshot := w.order
	n := len(snapshot)

	for i := 0; i < n; i++ {
		e := snapshot[i]
		if e.IsRemoved() || !e.thinking || e.thinkAt > now {
			continue
		}
		e.thinking = false
		if t, ok := e.behavior.(Thinker); ok {
			t.Think(w, e)
		}
	}

	for i := 0; i < n; i++ {
		if e := snapshot[i]; !e.IsRemoved() {
			w.move(e, dt)
		}
	}

	w.updateTouches()
	w.serviceEvents()
	w.removeOutOfBounds()
	w.compact()
}

func (w *World) move(e *Entity, dt float64) {
	var disp model.Vector
	switch e.moveType {
	case MovePhysics:
		p, ok := e.behavior.(Physical)
		if !ok || p.PhysicsObject() == nil {
			return
		}
		disp = p.PhysicsObject().Step(dt)
	case MoveFly:
		disp = e.velocity.Scale(dt)
	default:
		return
	}
	if disp.IsZero() {
		return
	}

	start := e.origin
	tr := w.TraceHull(start, start.Add(disp), e.mins, e.maxs, e)
	e.origin = tr.EndPos
	if !tr.Hit() {
		return
	}

	ev := CollisionEvent{
		Normal:      tr.Normal,
		Position:    tr.EndPos,
		PreVelocity: e.Velocity(),
		Other:       tr.Entity,
	}
	if c, ok := e.behavior.(Collider); ok {
		c.OnCollision(w, e, ev)
		return
	}
	switch e.moveType {
	case MovePhysics:
		e.SetVelocity(ev.PreVelocity.Reflect(ev.Normal).Scale(0.5))
	default:
		e.velocity = model.Vector{}
	}
}

func (w *World) updateTouches() {
	w.grid.reset()
	for i, e := range w.order {
		if !e.IsRemoved() && !e.IsTrigger() {
			mins, maxs := e.AbsBox()
			w.grid.insert(i, mins, maxs)
		}
	}

	for _, trig := range w.order {
		if trig.IsRemoved() || !trig.IsTrigger() {
			continue
		}
		tmin, tmax := trig.AbsBox()

		for _, idx := range w.grid.query(tmin, tmax) {
			other := w.order[idx]
			if other == trig || other.IsRemoved() {
				continue
			}
			if _, was := trig.touching[other.id]; was {
				continue
			}
			omin, omax := other.AbsBox()
			if boxesOverlap(tmin, tmax, omin, omax) {
				trig.touching[other.id] = other
				w.startTouch(trig, other)
			}
			if trig.IsRemoved() {
				break
			}
		}

		// entities that left the trigger or the world
		var ended []*Entity
		for id, other := range trig.touching {
			omin, omax := other.AbsBox()
			if trig.IsRemoved() || other.IsRemoved() || !boxesOverlap(tmin, tmax, omin, omax) {
				delete(trig.touching, id)
				ended = append(ended, other)
			}
		}
		slices.SortFunc(ended, func(a, b *Entity) int { return cmp.Compare(a.id, b.id) })
		for _, other := range ended {
			w.endTouch(trig, other)
		}
	}
}

func (w *World) startTouch(trig, other *Entity) {
	if t, ok := trig.behavior.(Toucher); ok {
		t.StartTouch(w, trig, other)
	}
	if t, ok := other.behavior.(Toucher); ok && !other.IsRemoved() {
		t.StartTouch(w, other, trig)
	}
}

func (w *World) endTouch(trig, other *Entity) {
	if t, ok := trig.behavior.(Toucher); ok {
		t.EndTouch(w, trig, other)
	}
	if t, ok := other.behavior.(Toucher); ok {
		t.EndTouch(w, other, trig)
	}
}

func (w *World) removeOutOfBounds() {
	for _, e := range w.order {
		if e.IsRemoved() {
			continue
		}
		o := e.origin
		if math.Abs(o.X) > w.bounds || math.Abs(o.Y) > w.bounds || math.Abs(o.Z) > w.bounds {
			slog.Warn("entity left the world, removing", "id", e.id, "classname", e.classname, "origin", o.String())
			w.Remove(e)
		}
	}
}

func (w *World) compact() {
	live := w.order[:0]
	for _, e := range w.order {
		if !e.IsRemoved() {
			live = append(live, e)
		}
	}
	clear(w.order[len(live):])
	w.order = live
}

package world

import "math/rand/v2"

// Clock is the simulation clock. It only advances inside World.Frame, so
// every deferred check (think times, delayed attacks, lifetimes) compares
// against the same value for a whole frame.
type Clock struct {
	now       float64
	frameTime float64
	tick      uint64
}

// Now returns the current simulation time in seconds.
func (c *Clock) Now() float64 { return c.now }

// FrameTime returns the length of the last frame.
func (c *Clock) FrameTime() float64 { return c.frameTime }

// TickCount returns the number of frames simulated.
func (c *Clock) TickCount() uint64 { return c.tick }

func (c *Clock) advance(dt float64) {
	c.now += dt
	c.frameTime = dt
	c.tick++
}

// Random is the source of gameplay randomness.
type Random interface {
	// Int returns a value in [lo, hi]. Bounds may be given in either order.
	Int(lo, hi int) int
	// Float returns a value in [lo, hi).
	Float(lo, hi float64) float64
}

type pcgRandom struct {
	r *rand.Rand
}

// NewRandom returns a deterministic Random seeded with seed.
func NewRandom(seed uint64) Random {
	return &pcgRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *pcgRandom) Int(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + p.r.IntN(hi-lo+1)
}

func (p *pcgRandom) Float(lo, hi float64) float64 {
	return lo + p.r.Float64()*(hi-lo)
}

package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector is a point or direction in world units.
// Value type, passed by value.
type Vector struct {
	X float64
	Y float64
	Z float64
}

// Vec creates a Vector.
func Vec(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// Add returns v+o.
func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v-o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v*s.
func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v×o.
func (v Vector) Cross(o Vector) Vector {
	return Vector{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LengthSquared returns |v|² (no sqrt, for hot paths).
func (v Vector) LengthSquared() float64 {
	return v.Dot(v)
}

// Length returns |v|.
func (v Vector) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// Normalize returns the unit vector of v and its original length.
// Zero vector stays zero.
func (v Vector) Normalize() (Vector, float64) {
	l := v.Length()
	if l == 0 {
		return Vector{}, 0
	}
	return v.Scale(1 / l), l
}

// IsZero reports whether every component is within epsilon of zero.
func (v Vector) IsZero() bool {
	const eps = 1e-6
	return math.Abs(v.X) < eps && math.Abs(v.Y) < eps && math.Abs(v.Z) < eps
}

// Reflect mirrors v about the plane with the given unit normal.
func (v Vector) Reflect(normal Vector) Vector {
	return v.Sub(normal.Scale(2 * v.Dot(normal)))
}

// String formats the vector the way map files store it ("x y z").
func (v Vector) String() string {
	return formatTriple(v.X, v.Y, v.Z)
}

// ParseVector parses "x y z".
func ParseVector(s string) (Vector, error) {
	x, y, z, err := parseTriple(s)
	if err != nil {
		return Vector{}, fmt.Errorf("parsing vector %q: %w", s, err)
	}
	return Vector{x, y, z}, nil
}

func parseTriple(s string) (a, b, c float64, err error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 components, got %d", len(fields))
	}
	var out [3]float64
	for i, f := range fields {
		out[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return out[0], out[1], out[2], nil
}

func formatTriple(a, b, c float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64) + " " +
		strconv.FormatFloat(b, 'g', -1, 64) + " " +
		strconv.FormatFloat(c, 'g', -1, 64)
}

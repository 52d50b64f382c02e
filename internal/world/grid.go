package world

import (
	"math"
	"slices"

	"github.com/udisondev/portalgo/internal/model"
)

// Touch broad phase: the XY plane is cut into square cells of 2^CellShift
// units. Each cell lists the entities whose boxes reach into it.
const (
	CellShift = 8
	CellSize  = 1 << CellShift

	// maxCellSpan caps the cells one box is filed under; bigger boxes go
	// to a list every query returns.
	maxCellSpan = 1024
)

type cellKey struct{ x, y int32 }

// CoordToCell converts a world coordinate to a cell index.
func CoordToCell(x, y float64) (cx, cy int32) {
	return int32(math.Floor(x)) >> CellShift, int32(math.Floor(y)) >> CellShift
}

// CellToCoord returns the world coordinate of the center of a cell.
func CellToCoord(cx, cy int32) (x, y float64) {
	return float64(cx<<CellShift) + CellSize/2, float64(cy<<CellShift) + CellSize/2
}

// cellRange returns the cell rectangle covered by a box, and false when it
// spans more than maxCellSpan cells.
func cellRange(mins, maxs model.Vector) (lo, hi cellKey, ok bool) {
	lo.x, lo.y = CoordToCell(mins.X, mins.Y)
	hi.x, hi.y = CoordToCell(maxs.X, maxs.Y)
	span := int64(hi.x-lo.x+1) * int64(hi.y-lo.y+1)
	return lo, hi, span <= maxCellSpan
}

// touchGrid is rebuilt every frame. It stores indices into World.order, so
// query results sort back into creation order.
type touchGrid struct {
	cells    map[cellKey][]int
	oversize []int
	seen     map[int]struct{}
}

func newTouchGrid() touchGrid {
	return touchGrid{
		cells: make(map[cellKey][]int),
		seen:  make(map[int]struct{}),
	}
}

func (g *touchGrid) reset() {
	for k, v := range g.cells {
		if len(v) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = v[:0]
	}
	g.oversize = g.oversize[:0]
}

func (g *touchGrid) insert(idx int, mins, maxs model.Vector) {
	lo, hi, ok := cellRange(mins, maxs)
	if !ok {
		g.oversize = append(g.oversize, idx)
		return
	}
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			k := cellKey{x, y}
			g.cells[k] = append(g.cells[k], idx)
		}
	}
}

// query returns the sorted indices of entities that may overlap the box.
func (g *touchGrid) query(mins, maxs model.Vector) []int {
	clear(g.seen)
	out := slices.Clone(g.oversize)
	for _, idx := range out {
		g.seen[idx] = struct{}{}
	}

	add := func(list []int) {
		for _, idx := range list {
			if _, dup := g.seen[idx]; !dup {
				g.seen[idx] = struct{}{}
				out = append(out, idx)
			}
		}
	}

	lo, hi, ok := cellRange(mins, maxs)
	if ok {
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				add(g.cells[cellKey{x, y}])
			}
		}
	} else {
		for _, list := range g.cells {
			add(list)
		}
	}
	slices.Sort(out)
	return out
}

package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/portalgo/internal/model"
)

func TestCoordToCell(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		cx, cy int32
	}{
		{"origin", 0, 0, 0, 0},
		{"inside first cell", CellSize - 0.5, 1, 0, 0},
		{"next cell", CellSize, CellSize * 2, 1, 2},
		{"negative floors", -0.5, -CellSize - 1, -1, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := CoordToCell(tt.x, tt.y)
			assert.Equal(t, tt.cx, cx)
			assert.Equal(t, tt.cy, cy)
		})
	}
}

func TestCellToCoord(t *testing.T) {
	x, y := CellToCoord(0, -1)
	assert.Equal(t, float64(CellSize/2), x)
	assert.Equal(t, float64(-CellSize/2), y)

	cx, cy := CoordToCell(x, y)
	assert.Equal(t, int32(0), cx)
	assert.Equal(t, int32(-1), cy)
}

func TestTouchGrid_Query(t *testing.T) {
	g := newTouchGrid()
	// 0 spans four cells, 1 is far away, 3 is too big for the cells
	g.insert(0, model.Vec(-8, -8, 0), model.Vec(8, 8, 16))
	g.insert(1, model.Vec(1000, 1000, 0), model.Vec(1010, 1010, 0))
	g.insert(2, model.Vec(300, 0, 0), model.Vec(310, 10, 0))
	g.insert(3, model.Vec(-1e6, -1e6, 0), model.Vec(1e6, 1e6, 0))

	assert.Equal(t, []int{0, 3}, g.query(model.Vec(-20, -20, 0), model.Vec(-10, -10, 0)))
	assert.Equal(t, []int{0, 2, 3}, g.query(model.Vec(0, 0, 0), model.Vec(300, 5, 0)))

	g.reset()
	assert.Empty(t, g.query(model.Vec(0, 0, 0), model.Vec(1, 1, 1)))

	g.insert(5, model.Vec(1000, 1000, 0), model.Vec(1001, 1001, 0))
	assert.Equal(t, []int{5}, g.query(model.Vec(-1e6, -1e6, 0), model.Vec(1e6, 1e6, 0)), "huge query scans every cell")
}

package sim

import (
	"fmt"
	"math"
)

// Grid is the full lattice held by the root partition: a row-major dense
// array of ny x nx cells and a parallel obstacle-flag array of identical
// shape and indexing (jj*nx + ii).
type Grid struct {
	Nx, Ny    int
	Cells     []Cell
	Obstacles []int
}

// NewGrid builds a grid at the standard equilibrium initialization:
// every cell holds the weighted rest-density distribution, so the initial
// velocity field is identically zero and the local density is Density at
// every cell.
func NewGrid(params *Params, obstacles []int) *Grid {
	if obstacles == nil {
		obstacles = make([]int, params.Nx*params.Ny)
	}
	g := &Grid{
		Nx:        params.Nx,
		Ny:        params.Ny,
		Cells:     make([]Cell, params.Nx*params.Ny),
		Obstacles: obstacles,
	}

	w0 := params.Density * 4.0 / 9.0
	w1 := params.Density / 9.0
	w2 := params.Density / 36.0
	for i := range g.Cells {
		s := &g.Cells[i].Speeds
		s[0] = w0
		s[1], s[2], s[3], s[4] = w1, w1, w1, w1
		s[5], s[6], s[7], s[8] = w2, w2, w2, w2
	}
	return g
}

// FlowCells counts the cells not blocked by an obstacle. The count
// normalizes the reduced average-velocity series.
func (g *Grid) FlowCells() int {
	flow := 0
	for _, o := range g.Obstacles {
		if o == 0 {
			flow++
		}
	}
	return flow
}

// TotalDensity sums every speed of every cell. The total should remain
// constant from one timestep to the next.
func (g *Grid) TotalDensity() float32 {
	var total float32
	for i := range g.Cells {
		for k := 0; k < NSpeeds; k++ {
			total += g.Cells[i].Speeds[k]
		}
	}
	return total
}

// AvVelocity computes the average flow speed of the grid: the accumulated
// sqrt(10000*(ux^2+uy^2)) over all non-blocked cells, divided by
// 100 * FlowCells. It uses the same single-precision velocity formula as
// the collide kernel.
func (g *Grid) AvVelocity() float64 {
	var totU float64
	for jj := 0; jj < g.Ny; jj++ {
		for ii := 0; ii < g.Nx; ii++ {
			idx := jj*g.Nx + ii
			if g.Obstacles[idx] != 0 {
				continue
			}
			s := &g.Cells[idx].Speeds
			var localDensity float32
			for k := 0; k < NSpeeds; k++ {
				localDensity += s[k]
			}
			uX := (s[1] + s[5] + s[8] - (s[3] + s[6] + s[7])) / localDensity
			uY := (s[2] + s[5] + s[6] - (s[4] + s[7] + s[8])) / localDensity
			totU += float64(float32(math.Sqrt(float64(10000 * (uX*uX + uY*uY)))))
		}
	}
	flow := g.FlowCells()
	if flow == 0 {
		return 0
	}
	return totU / (float64(flow) * 100)
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid{%dx%d, %d flow cells}", g.Nx, g.Ny, g.FlowCells())
}

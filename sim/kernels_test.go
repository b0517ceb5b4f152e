package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPartition builds a single-partition cohort filled from a fresh
// equilibrium grid. With one partition both ring neighbours are the
// partition itself, so haloExchange can run inline.
func newTestPartition(params *Params, obstacles []int) *Partition {
	p := NewPartition(params, NewFabric(1).Comm(0))
	p.fillOwnedRows(NewGrid(params, obstacles))
	return p
}

// step runs one full timestep on a single-partition cohort.
func (p *Partition) step() {
	p.haloExchange()
	p.accelerateFlow()
	p.propagate()
	p.rebound()
	p.collide()
}

func TestAccelerateFlow_AppliesToSecondRowFromTop(t *testing.T) {
	params := testParams(4, 4, 1)
	p := newTestPartition(params, nil)

	w1 := params.Density * params.Accel / 9.0
	w2 := params.Density * params.Accel / 36.0
	before := make([]Cell, len(p.cells))
	copy(before, p.cells)

	p.accelerateFlow()

	// global row ny-2 = 2 lives at local row 3
	jj := 3
	for ii := 0; ii < params.Nx; ii++ {
		s := p.cells[jj*params.Nx+ii].Speeds
		was := before[jj*params.Nx+ii].Speeds
		assert.Equal(t, was[1]+w1, s[1])
		assert.Equal(t, was[5]+w2, s[5])
		assert.Equal(t, was[8]+w2, s[8])
		assert.Equal(t, was[3]-w1, s[3])
		assert.Equal(t, was[6]-w2, s[6])
		assert.Equal(t, was[7]-w2, s[7])
	}
	// every other row is untouched
	for jj := 1; jj <= p.ownedRows; jj++ {
		if jj == 3 {
			continue
		}
		for ii := 0; ii < params.Nx; ii++ {
			assert.Equal(t, before[jj*params.Nx+ii], p.cells[jj*params.Nx+ii])
		}
	}
}

func TestAccelerateFlow_SkipsNonOwners(t *testing.T) {
	// GIVEN two partitions of a 4-row lattice: rank 0 owns rows 0..1,
	// rank 1 owns rows 2..3 and with them the accelerated row ny-2 = 2
	params := testParams(4, 4, 1)
	fabric := NewFabric(2)
	grid := NewGrid(params, nil)

	p0 := NewPartition(params, fabric.Comm(0))
	p0.fillOwnedRows(grid)
	p1 := NewPartition(params, fabric.Comm(1))
	p1.fillOwnedRows(grid)

	before0 := make([]Cell, len(p0.cells))
	copy(before0, p0.cells)

	// WHEN both run the kernel
	p0.accelerateFlow()
	p1.accelerateFlow()

	// THEN rank 0 is a no-op and rank 1 accelerated its local row 1
	assert.Equal(t, before0, p0.cells)
	w1 := params.Density * params.Accel / 9.0
	s := p1.cells[1*params.Nx].Speeds
	assert.Equal(t, params.Density/9.0+w1, s[1])
}

func TestAccelerateFlow_GuardsNegativeDensity(t *testing.T) {
	params := testParams(4, 4, 1)
	p := newTestPartition(params, nil)

	// deplete one west component on the accelerated row
	jj := 3
	p.cells[jj*params.Nx+2].Speeds[3] = 0

	before := p.cells[jj*params.Nx+2]
	p.accelerateFlow()

	assert.Equal(t, before, p.cells[jj*params.Nx+2], "depleted cell must not accelerate")
	assert.NotEqual(t, before.Speeds[1], p.cells[jj*params.Nx+1].Speeds[1], "healthy neighbours still accelerate")
}

func TestAccelerateFlow_SkipsObstacles(t *testing.T) {
	params := testParams(4, 4, 1)
	obstacles := make([]int, 16)
	obstacles[2*4+1] = 1 // cell (1, 2), on the accelerated row
	p := newTestPartition(params, obstacles)

	before := p.cells[3*params.Nx+1]
	p.accelerateFlow()

	assert.Equal(t, before, p.cells[3*params.Nx+1])
}

func TestPropagate_StreamsIntoNeighbours(t *testing.T) {
	params := testParams(3, 3, 1)
	p := newTestPartition(params, nil)
	p.haloExchange()

	// mark a single source cell with distinct component values
	src := p.idx(1, 2)
	for k := 0; k < NSpeeds; k++ {
		p.cells[src].Speeds[k] = float32(k + 1)
	}

	p.propagate()

	assert.Equal(t, float32(1), p.tmpCells[p.idx(1, 2)].Speeds[0], "rest component stays put")
	assert.Equal(t, float32(2), p.tmpCells[p.idx(2, 2)].Speeds[1], "east")
	assert.Equal(t, float32(3), p.tmpCells[p.idx(1, 3)].Speeds[2], "north")
	assert.Equal(t, float32(4), p.tmpCells[p.idx(0, 2)].Speeds[3], "west")
	assert.Equal(t, float32(5), p.tmpCells[p.idx(1, 1)].Speeds[4], "south")
	assert.Equal(t, float32(6), p.tmpCells[p.idx(2, 3)].Speeds[5], "north-east")
	assert.Equal(t, float32(7), p.tmpCells[p.idx(0, 3)].Speeds[6], "north-west")
	assert.Equal(t, float32(8), p.tmpCells[p.idx(0, 1)].Speeds[7], "south-west")
	assert.Equal(t, float32(9), p.tmpCells[p.idx(2, 1)].Speeds[8], "south-east")
}

func TestPropagate_WrapsAlongX(t *testing.T) {
	params := testParams(3, 3, 1)
	p := newTestPartition(params, nil)
	p.haloExchange()

	src := p.idx(2, 2) // eastmost column
	p.cells[src].Speeds[1] = 42

	p.propagate()

	assert.Equal(t, float32(42), p.tmpCells[p.idx(0, 2)].Speeds[1], "east component wraps to column 0")
}

func TestRebound_ReflectsOpposites(t *testing.T) {
	params := testParams(4, 4, 1)
	obstacles := make([]int, 16)
	obstacles[1*4+1] = 1 // cell (1, 1)
	p := newTestPartition(params, obstacles)

	idx := p.idx(1, 2) // local row of global row 1
	for k := 0; k < NSpeeds; k++ {
		p.tmpCells[idx].Speeds[k] = float32(k + 10)
	}
	restBefore := p.cells[idx].Speeds[0]

	p.rebound()

	for k := 1; k < NSpeeds; k++ {
		assert.Equal(t, p.tmpCells[idx].Speeds[Opposite[k]], p.cells[idx].Speeds[k])
	}
	assert.Equal(t, restBefore, p.cells[idx].Speeds[0], "rest component is not reflected")
}

func TestCollide_EquilibriumIsFixedPoint(t *testing.T) {
	params := testParams(4, 4, 1)
	p := newTestPartition(params, nil)

	// a zero-velocity equilibrium field relaxes onto itself
	copy(p.tmpCells, p.cells)
	before := make([]Cell, len(p.cells))
	copy(before, p.cells)

	p.collide()

	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < params.Nx; ii++ {
			idx := p.idx(ii, jj)
			for k := 0; k < NSpeeds; k++ {
				assert.InDelta(t, before[idx].Speeds[k], p.cells[idx].Speeds[k], 1e-7)
			}
		}
	}
}

func TestCollide_ConservesMass(t *testing.T) {
	params := testParams(4, 4, 1)
	p := newTestPartition(params, nil)

	// an asymmetric but positive streamed field
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < params.Nx; ii++ {
			for k := 0; k < NSpeeds; k++ {
				p.tmpCells[p.idx(ii, jj)].Speeds[k] = 0.01 * float32(1+(ii+jj+k)%5)
			}
		}
	}

	var massBefore, massAfter float64
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < params.Nx; ii++ {
			for k := 0; k < NSpeeds; k++ {
				massBefore += float64(p.tmpCells[p.idx(ii, jj)].Speeds[k])
			}
		}
	}

	p.collide()

	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < params.Nx; ii++ {
			for k := 0; k < NSpeeds; k++ {
				massAfter += float64(p.cells[p.idx(ii, jj)].Speeds[k])
			}
		}
	}
	assert.InEpsilon(t, massBefore, massAfter, 1e-4)
}

func TestAvVelocity_ZeroAtEquilibrium(t *testing.T) {
	p := newTestPartition(testParams(4, 4, 1), nil)
	assert.Equal(t, 0.0, p.avVelocity())
}

func TestObstacleCell_BounceBackAfterFullStep(t *testing.T) {
	// GIVEN a lattice with one obstacle
	params := testParams(4, 4, 1)
	obstacles := make([]int, 16)
	obstacles[1*4+1] = 1
	p := newTestPartition(params, obstacles)

	// WHEN a full timestep runs
	p.step()

	// THEN the obstacle cell is a pure reflector of the streamed field
	idx := p.idx(1, 2)
	for k := 1; k < NSpeeds; k++ {
		assert.Equal(t, p.tmpCells[idx].Speeds[Opposite[k]], p.cells[idx].Speeds[k])
	}
}

func TestGhostPurity_AfterHaloExchange(t *testing.T) {
	// GIVEN two partitions of a 4-row lattice with distinguishable rows
	params := testParams(2, 4, 1)
	grid := NewGrid(params, nil)
	for jj := 0; jj < params.Ny; jj++ {
		for ii := 0; ii < params.Nx; ii++ {
			grid.Cells[jj*params.Nx+ii].Speeds[0] = float32(jj)
		}
	}

	fabric := NewFabric(2)
	p0 := NewPartition(params, fabric.Comm(0))
	p0.fillOwnedRows(grid)
	p1 := NewPartition(params, fabric.Comm(1))
	p1.fillOwnedRows(grid)

	// WHEN both exchange halos
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p1.haloExchange()
	}()
	p0.haloExchange()
	wg.Wait()

	// THEN each ghost row holds the neighbour's boundary row: for rank 0
	// (rows 0..1) the bottom ghost is global row 3 and the top ghost is
	// global row 2; for rank 1 (rows 2..3) the reverse wrap applies
	nx := params.Nx
	require.Equal(t, float32(3), p0.cells[0].Speeds[0])
	require.Equal(t, float32(2), p0.cells[(p0.ownedRows+1)*nx].Speeds[0])
	require.Equal(t, float32(1), p1.cells[0].Speeds[0])
	require.Equal(t, float32(0), p1.cells[(p1.ownedRows+1)*nx].Speeds[0])
}

package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Simulator drives a cohort of partitions through the full run: initial
// scatter of the lattice, the timestep loop on every partition, the final
// gather back into the full grid, and the reduction of the per-step
// velocity sums into the averaged series.
//
// The root partition (rank 0) runs on the calling goroutine and is the only
// one that touches the full grid; the other partitions run as goroutines
// and coordinate with the root purely through the fabric. A partition
// failure panics and takes the whole cohort down; there is no local
// recovery.
type Simulator struct {
	Params *Params
	Grid   *Grid
	Size   int

	// AvVels is the reduced average-velocity series: one entry per step,
	// filled at finalization.
	AvVels []float64

	Metrics *Metrics

	// DumpDir, when set, enables per-step state dumps for debugging.
	DumpDir string
}

// NewSimulator validates the partition count and builds the full grid at
// the standard equilibrium initialization. A nil obstacles slice means an
// open lattice.
func NewSimulator(params *Params, obstacles []int, size int) (*Simulator, error) {
	if size < 1 || size > params.Ny {
		return nil, fmt.Errorf("partition count %d out of range [1,%d]: every partition must own at least one row", size, params.Ny)
	}
	return &Simulator{
		Params:  params,
		Grid:    NewGrid(params, obstacles),
		Size:    size,
		AvVels:  make([]float64, params.MaxIters),
		Metrics: &Metrics{},
	}, nil
}

// Run executes the simulation to completion and fills Grid, AvVels and
// Metrics with the final state.
func (s *Simulator) Run() {
	start := time.Now()

	fabric := NewFabric(s.Size)
	partitions := make([]*Partition, s.Size)
	for rank := range partitions {
		partitions[rank] = NewPartition(s.Params, fabric.Comm(rank))
		if s.DumpDir != "" {
			partitions[rank].dump = NewStateDump(s.DumpDir, s.Size, rank)
		}
		logrus.Debugf("rank %d of %d: %d owned rows at offset %d",
			rank, s.Size, partitions[rank].ownedRows, partitions[rank].rowOffset)
	}

	var wg sync.WaitGroup
	for rank := 1; rank < s.Size; rank++ {
		wg.Add(1)
		go func(p *Partition) {
			defer wg.Done()
			p.recvOwnedRows()
			p.simulate()
			p.sendOwnedRows()
			p.comm.SendVels(0, p.avVels)
		}(partitions[rank])
	}

	root := partitions[0]
	root.fillOwnedRows(s.Grid)
	s.scatter(root)
	logrus.Debugf("scatter complete, %d flow cells", s.Grid.FlowCells())

	root.simulate()

	root.storeOwnedRows(s.Grid)
	s.gather(root)
	s.reduce(root)
	wg.Wait()
	logrus.Debugf("gather complete after %d iterations", s.Params.MaxIters)

	s.Metrics.Reynolds = s.Reynolds()
	s.Metrics.Elapsed = time.Since(start)
	s.Metrics.captureRusage()
}

// scatter streams every non-root partition's strip out of the full grid,
// one (cells, obstacles) row pair at a time, in row order. The root's
// staging buffers are reused for every row.
func (s *Simulator) scatter(root *Partition) {
	rowsPerRank := s.Params.Ny / s.Size
	for rank := 1; rank < s.Size; rank++ {
		rows := ownedRowsFor(rank, s.Size, s.Params.Ny)
		for r := rank * rowsPerRank; r < rank*rowsPerRank+rows; r++ {
			s.packGlobalRow(root, r)
			root.comm.SendCells(rank, root.sendCells)
			root.comm.SendObstacles(rank, root.sendObstacles)
		}
	}
}

// gather is the symmetric inverse of scatter: the root writes each
// partition's rows back into the full grid at its global offsets.
func (s *Simulator) gather(root *Partition) {
	rowsPerRank := s.Params.Ny / s.Size
	for rank := 1; rank < s.Size; rank++ {
		rows := ownedRowsFor(rank, s.Size, s.Params.Ny)
		for r := rank * rowsPerRank; r < rank*rowsPerRank+rows; r++ {
			root.comm.RecvCells(rank, root.recvCells)
			root.comm.RecvObstacles(rank, root.recvObstacles)
			s.unpackGlobalRow(root, r)
		}
	}
}

func (s *Simulator) packGlobalRow(root *Partition, r int) {
	nx := s.Params.Nx
	for ii := 0; ii < nx; ii++ {
		copy(root.sendCells[ii*NSpeeds:(ii+1)*NSpeeds], s.Grid.Cells[r*nx+ii].Speeds[:])
		root.sendObstacles[ii] = s.Grid.Obstacles[r*nx+ii]
	}
}

func (s *Simulator) unpackGlobalRow(root *Partition, r int) {
	nx := s.Params.Nx
	for ii := 0; ii < nx; ii++ {
		copy(s.Grid.Cells[r*nx+ii].Speeds[:], root.recvCells[ii*NSpeeds:(ii+1)*NSpeeds])
		s.Grid.Obstacles[r*nx+ii] = root.recvObstacles[ii]
	}
}

// reduce collects every partition's velocity series (tag 2, one message of
// maxIters doubles each), sums them pointwise into the root's series, and
// divides each entry by 100 * flowCells.
func (s *Simulator) reduce(root *Partition) {
	copy(s.AvVels, root.avVels)
	recvVels := make([]float64, s.Params.MaxIters)
	for rank := 1; rank < s.Size; rank++ {
		root.comm.RecvVels(rank, recvVels)
		floats.Add(s.AvVels, recvVels)
	}

	flow := s.Grid.FlowCells()
	if flow == 0 {
		// a fully blocked lattice accumulates nothing; leave the zeros
		return
	}
	for i := range s.AvVels {
		s.AvVels[i] /= float64(flow) * 100
	}
}

// Reynolds computes the Reynolds number of the final state: the average
// velocity of the gathered grid times the characteristic dimension over
// the kinematic viscosity.
func (s *Simulator) Reynolds() float64 {
	return s.Grid.AvVelocity() * float64(s.Params.ReynoldsDim) / float64(s.Params.Viscosity())
}

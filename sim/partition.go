package sim

import (
	"github.com/sirupsen/logrus"
)

// Partition owns a contiguous strip of lattice rows plus two ghost rows.
// The local arrays are (ownedRows+2) x nx: row 0 is the bottom ghost, row
// ownedRows+1 the top ghost, rows 1..ownedRows are owned. Ghost rows are
// refreshed from the ring neighbours at the start of every step; they feed
// propagate but are never touched by the other kernels and never count
// toward the velocity sum.
type Partition struct {
	params *Params
	comm   *Comm

	ownedRows int // rows this partition owns
	rowOffset int // global index of the first owned row

	cells     []Cell
	tmpCells  []Cell
	obstacles []int

	avVels []float64 // per-step local velocity sums, reduced at the root

	// Row staging buffers, shared by halo exchange, scatter and gather.
	// The rendezvous transport copies on receive, so a buffer is free for
	// reuse as soon as a send returns.
	sendCells     []float32
	recvCells     []float32
	sendObstacles []int
	recvObstacles []int

	dump *StateDump
}

// ownedRowsFor splits ny rows across size partitions: floor(ny/size) each,
// with the remainder folded into the last partition.
func ownedRowsFor(rank, size, ny int) int {
	rows := ny / size
	if ny%size != 0 && rank == size-1 {
		rows += ny % size
	}
	return rows
}

// NewPartition allocates the partition-local state for one rank. All
// allocation happens here; the timestep loop allocates nothing.
func NewPartition(params *Params, comm *Comm) *Partition {
	rows := ownedRowsFor(comm.Rank(), comm.Size(), params.Ny)
	localCells := (rows + 2) * params.Nx
	return &Partition{
		params:        params,
		comm:          comm,
		ownedRows:     rows,
		rowOffset:     comm.Rank() * (params.Ny / comm.Size()),
		cells:         make([]Cell, localCells),
		tmpCells:      make([]Cell, localCells),
		obstacles:     make([]int, localCells),
		avVels:        make([]float64, params.MaxIters),
		sendCells:     make([]float32, NSpeeds*params.Nx),
		recvCells:     make([]float32, NSpeeds*params.Nx),
		sendObstacles: make([]int, params.Nx),
		recvObstacles: make([]int, params.Nx),
	}
}

func (p *Partition) idx(ii, jj int) int {
	return jj*p.params.Nx + ii
}

// packRow copies local row jj into the send staging buffers.
func (p *Partition) packRow(jj int) {
	nx := p.params.Nx
	for ii := 0; ii < nx; ii++ {
		copy(p.sendCells[ii*NSpeeds:(ii+1)*NSpeeds], p.cells[p.idx(ii, jj)].Speeds[:])
		p.sendObstacles[ii] = p.obstacles[p.idx(ii, jj)]
	}
}

// unpackRow copies the receive staging buffers into local row jj.
func (p *Partition) unpackRow(jj int) {
	nx := p.params.Nx
	for ii := 0; ii < nx; ii++ {
		copy(p.cells[p.idx(ii, jj)].Speeds[:], p.recvCells[ii*NSpeeds:(ii+1)*NSpeeds])
		p.obstacles[p.idx(ii, jj)] = p.recvObstacles[ii]
	}
}

// haloExchange refreshes both ghost rows with two matched send-receive
// pairs: first the bottom boundary travels left while the top ghost arrives
// from the right, then the top boundary travels right while the bottom
// ghost arrives from the left. Each exchange carries the row's cells on
// tag 0 and its obstacle flags on tag 1.
func (p *Partition) haloExchange() {
	left, right := p.comm.Left(), p.comm.Right()

	p.packRow(1)
	p.comm.SendrecvCells(left, p.sendCells, right, p.recvCells)
	p.comm.SendrecvObstacles(left, p.sendObstacles, right, p.recvObstacles)
	p.unpackRow(p.ownedRows + 1)

	p.packRow(p.ownedRows)
	p.comm.SendrecvCells(right, p.sendCells, left, p.recvCells)
	p.comm.SendrecvObstacles(right, p.sendObstacles, left, p.recvObstacles)
	p.unpackRow(0)
}

// simulate advances the partition through the full run: per step a halo
// exchange, the kernel pipeline over the owned rows, and the local
// velocity sum.
func (p *Partition) simulate() {
	for tt := 0; tt < p.params.MaxIters; tt++ {
		if p.comm.Rank() == 0 && tt%500 == 0 {
			logrus.Debugf("iteration: %d", tt)
		}
		p.dump.Record(tt, p)
		p.haloExchange()
		p.accelerateFlow()
		p.propagate()
		p.rebound()
		p.collide()
		p.avVels[tt] = p.avVelocity()
	}
}

// fillOwnedRows copies the partition's strip out of the full grid. Only the
// root calls this, for its own rows during scatter.
func (p *Partition) fillOwnedRows(grid *Grid) {
	nx := p.params.Nx
	for jj := 1; jj <= p.ownedRows; jj++ {
		global := (p.rowOffset + jj - 1) * nx
		copy(p.cells[jj*nx:(jj+1)*nx], grid.Cells[global:global+nx])
		copy(p.obstacles[jj*nx:(jj+1)*nx], grid.Obstacles[global:global+nx])
	}
}

// storeOwnedRows writes the partition's strip back into the full grid.
// Only the root calls this, for its own rows during gather.
func (p *Partition) storeOwnedRows(grid *Grid) {
	nx := p.params.Nx
	for jj := 1; jj <= p.ownedRows; jj++ {
		global := (p.rowOffset + jj - 1) * nx
		copy(grid.Cells[global:global+nx], p.cells[jj*nx:(jj+1)*nx])
		copy(grid.Obstacles[global:global+nx], p.obstacles[jj*nx:(jj+1)*nx])
	}
}

// recvOwnedRows receives this partition's strip from the root during
// scatter, one (cells, obstacles) row pair at a time, in row order.
func (p *Partition) recvOwnedRows() {
	for jj := 1; jj <= p.ownedRows; jj++ {
		p.comm.RecvCells(0, p.recvCells)
		p.comm.RecvObstacles(0, p.recvObstacles)
		p.unpackRow(jj)
	}
}

// sendOwnedRows streams this partition's strip to the root during gather.
func (p *Partition) sendOwnedRows() {
	for jj := 1; jj <= p.ownedRows; jj++ {
		p.packRow(jj)
		p.comm.SendCells(0, p.sendCells)
		p.comm.SendObstacles(0, p.sendObstacles)
	}
}

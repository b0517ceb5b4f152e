// Package sim provides the core distributed lattice-Boltzmann engine for lbm-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - cell.go: the nine-speed D2Q9 cell layout and the opposite-direction map
//   - kernels.go: the four stencil kernels (accelerate, propagate, rebound, collide)
//   - simulator.go: cohort construction, the per-partition step loop, and the reduction
//
// # Architecture
//
// The full lattice is split into horizontal strips, one per partition. Each
// partition owns a contiguous block of rows plus two ghost rows that mirror
// the boundary rows of its ring neighbours. Partitions run as goroutines and
// coordinate exclusively by message passing over the fabric in comm.go; there
// is no shared mutable state between them.
//
// Per timestep each partition refreshes its ghost rows with two matched
// send-receive exchanges, applies the kernels to its owned rows, and records a
// local velocity sum. At the end of the run the root partition gathers the
// owned rows back into the full grid and reduces the per-step velocity sums
// into the averaged series that is written to av_vels.dat.
package sim

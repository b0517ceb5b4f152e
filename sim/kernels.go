package sim

import "math"

// The four stencil kernels act on the owned rows (1..ownedRows) of a
// partition-local grid; ghost rows only feed propagate. Per step they run
// in the fixed order accelerate -> propagate -> rebound -> collide:
// propagate writes the streamed field into tmpCells, rebound reflects it
// back into cells at obstacle sites, and collide relaxes it into cells at
// flow sites.

// accelerateFlow nudges the single row just inside the top edge of the
// global lattice (row ny-2) eastward. Partitions that do not own that row
// skip the kernel; the owner locates it by global row index. Cells where
// the subtraction would drive a west-side component non-positive are left
// untouched.
func (p *Partition) accelerateFlow() {
	jj := p.params.Ny - 2 - p.rowOffset + 1
	if jj < 1 || jj > p.ownedRows {
		return
	}

	w1 := p.params.Density * p.params.Accel / 9.0
	w2 := p.params.Density * p.params.Accel / 36.0

	nx := p.params.Nx
	for ii := 0; ii < nx; ii++ {
		idx := jj*nx + ii
		s := &p.cells[idx].Speeds
		if p.obstacles[idx] == 0 && s[3]-w1 > 0 && s[6]-w2 > 0 && s[7]-w2 > 0 {
			// increase east-side densities
			s[1] += w1
			s[5] += w2
			s[8] += w2
			// decrease west-side densities
			s[3] -= w1
			s[6] -= w2
			s[7] -= w2
		}
	}
}

// propagate streams each directional component into the corresponding
// neighbour cell, reading from cells and writing to tmpCells. Wrap along x
// is modular; wrap along y goes through the ghost rows, which hold the
// ring neighbours' boundary rows.
func (p *Partition) propagate() {
	nx := p.params.Nx
	nyLocal := p.ownedRows + 2
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < nx; ii++ {
			yN := (jj + 1) % nyLocal
			xE := (ii + 1) % nx
			yS := jj - 1
			xW := ii - 1
			if ii == 0 {
				xW = nx - 1
			}
			dst := &p.tmpCells[jj*nx+ii].Speeds
			dst[0] = p.cells[jj*nx+ii].Speeds[0]
			dst[1] = p.cells[jj*nx+xW].Speeds[1]
			dst[2] = p.cells[yS*nx+ii].Speeds[2]
			dst[3] = p.cells[jj*nx+xE].Speeds[3]
			dst[4] = p.cells[yN*nx+ii].Speeds[4]
			dst[5] = p.cells[yS*nx+xW].Speeds[5]
			dst[6] = p.cells[yS*nx+xE].Speeds[6]
			dst[7] = p.cells[yN*nx+xE].Speeds[7]
			dst[8] = p.cells[yN*nx+xW].Speeds[8]
		}
	}
}

// rebound bounces the streamed field back at obstacle cells: every moving
// component is replaced by its opposite, read from tmpCells and written to
// cells at the same site.
func (p *Partition) rebound() {
	nx := p.params.Nx
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < nx; ii++ {
			idx := jj*nx + ii
			if p.obstacles[idx] == 0 {
				continue
			}
			for k := 1; k < NSpeeds; k++ {
				p.cells[idx].Speeds[k] = p.tmpCells[idx].Speeds[Opposite[k]]
			}
		}
	}
}

// collide relaxes each flow cell of the streamed field toward its local
// equilibrium, reading from tmpCells and writing into cells. All
// arithmetic is single precision in the written order.
func (p *Partition) collide() {
	const (
		cSq = 1.0 / 3.0  // square of speed of sound
		w0  = 4.0 / 9.0  // rest weighting factor
		w1  = 1.0 / 9.0  // axis weighting factor
		w2  = 1.0 / 36.0 // diagonal weighting factor
	)

	omega := p.params.Omega
	nx := p.params.Nx
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < nx; ii++ {
			idx := jj*nx + ii
			if p.obstacles[idx] != 0 {
				continue
			}
			t := &p.tmpCells[idx].Speeds

			var localDensity float32
			for k := 0; k < NSpeeds; k++ {
				localDensity += t[k]
			}
			uX := (t[1] + t[5] + t[8] - (t[3] + t[6] + t[7])) / localDensity
			uY := (t[2] + t[5] + t[6] - (t[4] + t[7] + t[8])) / localDensity
			uSq := uX*uX + uY*uY

			// directional velocity components
			var u [NSpeeds]float32
			u[1] = uX
			u[2] = uY
			u[3] = -uX
			u[4] = -uY
			u[5] = uX + uY
			u[6] = -uX + uY
			u[7] = -uX - uY
			u[8] = uX - uY

			// equilibrium densities
			var dEqu [NSpeeds]float32
			dEqu[0] = w0 * localDensity * (1.0 - uSq/(2.0*cSq))
			for k := 1; k < NSpeeds; k++ {
				w := float32(w1)
				if k >= 5 {
					w = w2
				}
				dEqu[k] = w * localDensity * (1.0 + u[k]/cSq +
					(u[k]*u[k])/(2.0*cSq*cSq) -
					uSq/(2.0*cSq))
			}

			s := &p.cells[idx].Speeds
			for k := 0; k < NSpeeds; k++ {
				s[k] = t[k] + omega*(dEqu[k]-t[k])
			}
		}
	}
}

// avVelocity accumulates sqrt(10000*(ux^2+uy^2)) over the owned flow cells
// into a float64. The sum is left unnormalized here; the root divides the
// reduced series by 100 * flowCells once, at finalization.
func (p *Partition) avVelocity() float64 {
	var totU float64
	nx := p.params.Nx
	for jj := 1; jj <= p.ownedRows; jj++ {
		for ii := 0; ii < nx; ii++ {
			idx := jj*nx + ii
			if p.obstacles[idx] != 0 {
				continue
			}
			s := &p.cells[idx].Speeds

			var localDensity float32
			for k := 0; k < NSpeeds; k++ {
				localDensity += s[k]
			}
			uX := (s[1] + s[5] + s[8] - (s[3] + s[6] + s[7])) / localDensity
			uY := (s[2] + s[5] + s[6] - (s[4] + s[7] + s[8])) / localDensity

			totU += float64(float32(math.Sqrt(float64(10000 * (uX*uX + uY*uY)))))
		}
	}
	return totU
}

package sim

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// WriteFinalState writes one line per cell in row-major order (jj outer,
// ii inner): "ii jj u_x u_y |u| pressure blocked". Occupied cells emit zero
// velocities and the rest-density pressure; flow cells emit the velocities
// of their final distribution.
func WriteFinalState(path string, grid *Grid, params *Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open final state file: %w", err)
	}
	defer f.Close()

	const cSq = 1.0 / 3.0 // square of speed of sound

	w := bufio.NewWriter(f)
	for jj := 0; jj < grid.Ny; jj++ {
		for ii := 0; ii < grid.Nx; ii++ {
			idx := jj*grid.Nx + ii
			var uX, uY, u, pressure float32
			if grid.Obstacles[idx] != 0 {
				pressure = params.Density * cSq
			} else {
				s := &grid.Cells[idx].Speeds
				var localDensity float32
				for k := 0; k < NSpeeds; k++ {
					localDensity += s[k]
				}
				uX = (s[1] + s[5] + s[8] - (s[3] + s[6] + s[7])) / localDensity
				uY = (s[2] + s[5] + s[6] - (s[4] + s[7] + s[8])) / localDensity
				u = float32(math.Sqrt(float64(uX*uX + uY*uY)))
				pressure = localDensity * cSq
			}
			fmt.Fprintf(w, "%d %d %.12E %.12E %.12E %.12E %d\n",
				ii, jj, uX, uY, u, pressure, grid.Obstacles[idx])
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write final state file %s: %w", path, err)
	}
	return nil
}

// WriteAvVels writes the reduced average-velocity series, one "t:\tvalue"
// line per step. A zero-iteration run produces an empty file.
func WriteAvVels(path string, avVels []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open av_vels file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for tt, v := range avVels {
		fmt.Fprintf(w, "%d:\t%.12E\n", tt, v)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write av_vels file %s: %w", path, err)
	}
	return nil
}

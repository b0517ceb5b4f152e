package sim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// StateDump appends per-step snapshots of a partition-local lattice
// (ghost rows included) to a debugging file. Disabled partitions carry a
// nil dump; recording through a nil dump is a no-op, so the timestep loop
// pays nothing when dumping is off.
type StateDump struct {
	path string
}

// NewStateDump creates (or truncates) the dump file for one partition of
// the cohort.
func NewStateDump(dir string, size, rank int) *StateDump {
	path := filepath.Join(dir, fmt.Sprintf("state_size_%d_proc_%d.txt", size, rank))
	f, err := os.Create(path)
	if err != nil {
		logrus.Warnf("create state dump %s: %v", path, err)
		return nil
	}
	f.Close()
	return &StateDump{path: path}
}

// Record appends the partition's current lattice and obstacle map.
func (d *StateDump) Record(step int, p *Partition) {
	if d == nil {
		return
	}
	f, err := os.OpenFile(d.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logrus.Warnf("append state dump %s: %v", d.path, err)
		return
	}
	defer f.Close()

	nx := p.params.Nx
	nyLocal := p.ownedRows + 2
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Step %d:\n", step)
	for jj := 0; jj < nyLocal; jj++ {
		for ii := 0; ii < nx; ii++ {
			for k := 0; k < NSpeeds; k++ {
				fmt.Fprintf(w, "%f ", p.cells[jj*nx+ii].Speeds[k])
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
	for jj := 0; jj < nyLocal; jj++ {
		for ii := 0; ii < nx; ii++ {
			fmt.Fprintf(w, "%d ", p.obstacles[jj*nx+ii])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, "\n\n")
	if err := w.Flush(); err != nil {
		logrus.Warnf("write state dump %s: %v", d.path, err)
	}
}

// DumpVels writes a raw velocity series, one "%.12f" value per line.
func DumpVels(path string, vels []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open velocity dump: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range vels {
		fmt.Fprintf(w, "%.12f\n", v)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write velocity dump %s: %w", path, err)
	}
	return nil
}

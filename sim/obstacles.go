package sim

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadObstacles reads an obstacle file into a row-major flag array of
// ny x nx ints. Each line has the form "x y 1" and marks cell (x, y) as
// blocked; cells not listed default to open.
func LoadObstacles(path string, nx, ny int) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obstacle file: %w", err)
	}
	defer f.Close()

	obstacles := make([]int, nx*ny)
	for {
		var xx, yy, blocked int
		n, err := fmt.Fscan(f, &xx, &yy, &blocked)
		if n == 0 && errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read obstacle file %s: expected 3 values per line: %w", path, err)
		}
		if xx < 0 || xx > nx-1 {
			return nil, fmt.Errorf("obstacle file %s: x-coord %d out of range [0,%d)", path, xx, nx)
		}
		if yy < 0 || yy > ny-1 {
			return nil, fmt.Errorf("obstacle file %s: y-coord %d out of range [0,%d)", path, yy, ny)
		}
		if blocked != 1 {
			return nil, fmt.Errorf("obstacle file %s: blocked value should be 1, got %d", path, blocked)
		}
		obstacles[yy*nx+xx] = blocked
	}
	return obstacles, nil
}

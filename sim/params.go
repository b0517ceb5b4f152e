package sim

import (
	"fmt"
	"os"
)

// Params groups the immutable simulation parameters loaded from the
// parameter file. The file holds one whitespace-separated value per line,
// in field order.
type Params struct {
	Nx          int     // no. of cells in x-direction
	Ny          int     // no. of cells in y-direction
	MaxIters    int     // no. of iterations
	ReynoldsDim int     // dimension for Reynolds number
	Density     float32 // rest density per cell
	Accel       float32 // density redistribution per accelerated step
	Omega       float32 // relaxation parameter, must lie in (0,2)
}

// LoadParams reads and validates a parameter file.
func LoadParams(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameter file: %w", err)
	}
	defer f.Close()

	p := &Params{}
	fields := []struct {
		name string
		dst  any
	}{
		{"nx", &p.Nx},
		{"ny", &p.Ny},
		{"maxIters", &p.MaxIters},
		{"reynolds_dim", &p.ReynoldsDim},
		{"density", &p.Density},
		{"accel", &p.Accel},
		{"omega", &p.Omega},
	}
	for _, field := range fields {
		if _, err := fmt.Fscan(f, field.dst); err != nil {
			return nil, fmt.Errorf("read parameter file %s: %s: %w", path, field.name, err)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parameter file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the parameter domain. MaxIters may be zero: a
// zero-iteration run emits the equilibrium initial state unchanged.
func (p *Params) Validate() error {
	if p.Nx < 1 || p.Ny < 1 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", p.Nx, p.Ny)
	}
	if p.MaxIters < 0 {
		return fmt.Errorf("maxIters must be non-negative, got %d", p.MaxIters)
	}
	if p.ReynoldsDim < 1 {
		return fmt.Errorf("reynolds_dim must be positive, got %d", p.ReynoldsDim)
	}
	if p.Density <= 0 {
		return fmt.Errorf("density must be positive, got %g", p.Density)
	}
	if p.Omega <= 0 || p.Omega >= 2 {
		return fmt.Errorf("omega must lie in (0,2), got %g", p.Omega)
	}
	return nil
}

// Viscosity derives the kinematic viscosity from the relaxation parameter.
func (p *Params) Viscosity() float32 {
	return 1.0 / 6.0 * (2.0/p.Omega - 1.0)
}

// cmd/root.go
package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/lbm-sim/lbm-sim/sim"
)

var (
	partitions   int
	logLevel     string
	outDir       string
	dumpState    bool
	manifestPath string
	presetName   string
)

var rootCmd = &cobra.Command{
	Use:   "lbm-sim <paramfile> <obstaclefile>",
	Short: "Distributed D2Q9-BGK lattice-Boltzmann simulator",
	Long: `lbm-sim advances a two-dimensional nine-velocity lattice-Boltzmann
flow field for a fixed number of timesteps across a ring of partitions,
then writes the final per-cell state and the per-step average-velocity
series.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		paramfile, obstaclefile := resolveInputs(cmd, args)
		logrus.Infof("Starting simulation: params=%s obstacles=%s partitions=%d",
			paramfile, obstaclefile, partitions)

		params, err := sim.LoadParams(paramfile)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		obstacles, err := sim.LoadObstacles(obstaclefile, params.Nx, params.Ny)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		s, err := sim.NewSimulator(params, obstacles, partitions)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if dumpState {
			s.DumpDir = outDir
		}
		s.Run()

		s.Metrics.Print()
		if err := sim.WriteFinalState(filepath.Join(outDir, "final_state.dat"), s.Grid, params); err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := sim.WriteAvVels(filepath.Join(outDir, "av_vels.dat"), s.AvVels); err != nil {
			logrus.Fatalf("%v", err)
		}
		if dumpState {
			if err := sim.DumpVels(filepath.Join(outDir, "velocities_tot_u.txt"), s.AvVels); err != nil {
				logrus.Warnf("%v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

// resolveInputs merges positional arguments with an optional manifest
// preset. Positional arguments and explicitly set flags win.
func resolveInputs(cmd *cobra.Command, args []string) (paramfile, obstaclefile string) {
	if len(args) > 0 {
		paramfile = args[0]
	}
	if len(args) > 1 {
		obstaclefile = args[1]
	}

	if manifestPath != "" {
		m, err := LoadManifest(manifestPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		preset, ok := m.Preset(presetName)
		if !ok {
			logrus.Fatalf("manifest %s: no preset named %q", manifestPath, presetName)
		}
		logrus.Infof("Using preset %v", presetName)
		if paramfile == "" {
			paramfile = preset.ParamFile
		}
		if obstaclefile == "" {
			obstaclefile = preset.ObstacleFile
		}
		if preset.Partitions > 0 && !cmd.Flags().Changed("partitions") {
			partitions = preset.Partitions
		}
		if preset.OutDir != "" && !cmd.Flags().Changed("out-dir") {
			outDir = preset.OutDir
		}
	}

	if paramfile == "" || obstaclefile == "" {
		logrus.Fatalf("Usage: lbm-sim <paramfile> <obstaclefile>")
	}
	return paramfile, obstaclefile
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVar(&partitions, "partitions", 1, "Number of partitions in the cohort")
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&outDir, "out-dir", ".", "Directory for final_state.dat and av_vels.dat")
	rootCmd.Flags().BoolVar(&dumpState, "dump", false, "Dump per-step partition state for debugging")
	rootCmd.Flags().StringVar(&manifestPath, "config", "", "YAML run manifest with named presets")
	rootCmd.Flags().StringVar(&presetName, "preset", "default", "Preset name to use from the manifest")
}

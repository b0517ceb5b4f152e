// Tracks end-of-run figures reported on the console after the final gather.

package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Metrics aggregates the end-of-run report: the Reynolds number of the
// final state and the wallclock and CPU times of the run.
type Metrics struct {
	Reynolds   float64
	Elapsed    time.Duration
	UserTime   float64 // user CPU seconds
	SystemTime float64 // system CPU seconds
}

// captureRusage records the process CPU times consumed so far.
func (m *Metrics) captureRusage() {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		logrus.Warnf("getrusage: %v", err)
		return
	}
	m.UserTime = timevalSeconds(ru.Utime)
	m.SystemTime = timevalSeconds(ru.Stime)
}

func timevalSeconds(tv unix.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1000000.0
}

// Print displays the final report at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("==done==")
	fmt.Printf("Reynolds number:\t\t%.12E\n", m.Reynolds)
	fmt.Printf("Elapsed time:\t\t\t%.6f (s)\n", m.Elapsed.Seconds())
	fmt.Printf("Elapsed user CPU time:\t\t%.6f (s)\n", m.UserTime)
	fmt.Printf("Elapsed system CPU time:\t%.6f (s)\n", m.SystemTime)
}

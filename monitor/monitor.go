// Package monitor samples the CPU and memory use of the running process
// into Prometheus gauges
package monitor

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// DefaultInterval is the time between samples taken by Run
const DefaultInterval = 500 * time.Millisecond

// ProcessMonitor records resource usage of the current process
type ProcessMonitor struct {
	proc     *process.Process
	memUsage prometheus.Gauge
	cpuUsage prometheus.Gauge
	log      *zap.Logger
}

// NewProcessMonitor returns a monitor for the current process with its
// gauges registered on reg
func NewProcessMonitor(reg prometheus.Registerer, log *zap.Logger) (*ProcessMonitor, error) {

	proc, err := process.NewProcess(int32(os.Getpid()))

	if err != nil {
		return nil, fmt.Errorf("error opening process: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	m := &ProcessMonitor{
		proc: proc,
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vistrack_process_memory_megabytes",
			Help: "Resident memory of the process in megabytes.",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vistrack_process_cpu_percent",
			Help: "CPU usage of the process in percent.",
		}),
		log: log,
	}

	if reg != nil {
		reg.MustRegister(m.memUsage, m.cpuUsage)
	}

	return m, nil
}

// Sample reads the current memory and CPU usage into the gauges
func (m *ProcessMonitor) Sample() error {

	memInfo, err := m.proc.MemoryInfo()

	if err != nil {
		return fmt.Errorf("error reading memory info: %w", err)
	}

	cpuPercent, err := m.proc.CPUPercent()

	if err != nil {
		return fmt.Errorf("error reading cpu percent: %w", err)
	}

	m.memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	m.cpuUsage.Set(math.Round(cpuPercent*100) / 100)

	return nil
}

// Run samples every interval until the context is cancelled
func (m *ProcessMonitor) Run(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := m.Sample(); err != nil {
				m.log.Warn("Process sample failed", zap.Error(err))
			}
		}
	}
}

// Package observability reads runtime health of the gateway process for
// the admin dashboard.
package observability

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SelfStats is a point-in-time snapshot of this process.
type SelfStats struct {
	PID        int32   `json:"pid"`
	CPUPercent float64 `json:"cpuPercent"`
	RAMPercent float32 `json:"ramPercent"`
	Threads    int     `json:"threads"`
	UptimeSecs int64   `json:"uptimeSeconds"`
}

type Monitor struct {
	proc      *process.Process
	startedAt time.Time
}

func NewMonitor() (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{proc: p, startedAt: time.Now()}, nil
}

func (m *Monitor) Snapshot() (SelfStats, error) {
	cpu, err := m.proc.CPUPercent()
	if err != nil {
		return SelfStats{}, err
	}
	ram, err := m.proc.MemoryPercent()
	if err != nil {
		return SelfStats{}, err
	}
	threads, err := m.proc.NumThreads()
	if err != nil {
		return SelfStats{}, err
	}
	return SelfStats{
		PID:        m.proc.Pid,
		CPUPercent: cpu,
		RAMPercent: ram,
		Threads:    int(threads),
		UptimeSecs: int64(time.Since(m.startedAt).Seconds()),
	}, nil
}

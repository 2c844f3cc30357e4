package sampler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// Reading is one measurement of a process.
type Reading struct {
	CPU     float64
	RSS     uint64
	VMS     uint64
	Threads int32
}

// Probe takes readings.
type Probe interface {
	Read(ctx context.Context) (Reading, error)
}

// ProcessProbe reads a process through gopsutil.
type ProcessProbe struct {
	proc *process.Process
}

// NewProcessProbe returns a probe of the process with the given pid.
func NewProcessProbe(pid int32) (*ProcessProbe, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open process %d", pid)
	}
	return &ProcessProbe{proc: p}, nil
}

func (p *ProcessProbe) Read(ctx context.Context) (Reading, error) {
	var r Reading
	cpu, err := p.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return r, errors.Wrap(err, "cpu")
	}
	mem, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return r, errors.Wrap(err, "memory")
	}
	threads, err := p.proc.NumThreadsWithContext(ctx)
	if err != nil {
		return r, errors.Wrap(err, "threads")
	}
	r.CPU = cpu
	r.RSS = mem.RSS
	r.VMS = mem.VMS
	r.Threads = threads
	return r, nil
}

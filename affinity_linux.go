//go:build linux

package prioritypool

import (
	"golang.org/x/sys/unix"
)

// maxCPUs is the number of CPU bits in unix.CPUSet.
const maxCPUs = 1024

// PinToCPU restricts the calling OS thread to a single CPU.
// The caller must hold runtime.LockOSThread.
func PinToCPU(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}

// allowedCPUs returns the CPUs in the calling thread's affinity mask in
// ascending order. Inside a cpuset the ids need not start at 0 or be
// contiguous.
func allowedCPUs() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	n := set.Count()
	cpus := make([]int, 0, n)
	for cpu := 0; cpu < maxCPUs && len(cpus) < n; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// currentThreadID identifies the calling OS thread. Workers lock their
// goroutine to a thread, so a match means the caller runs on a worker.
func currentThreadID() int64 {
	return int64(unix.Gettid())
}

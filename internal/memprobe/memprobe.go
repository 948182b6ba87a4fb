// Package memprobe reports how much physical memory the host can hand out
// right now. The preprocessing pipeline uses it to bound how far a captured
// image may be upscaled.
package memprobe

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// Unavailable is returned by probes that cannot determine free memory.
const Unavailable int64 = -1

// Probe returns the number of bytes of physical memory currently available,
// or a negative value when the platform cannot tell.
type Probe interface {
	Available() int64
}

// ProbeFunc adapts a plain function to the Probe interface.
type ProbeFunc func() int64

// Available calls f.
func (f ProbeFunc) Available() int64 { return f() }

// Fixed returns a probe that always reports n bytes.
func Fixed(n int64) Probe {
	return ProbeFunc(func() int64 { return n })
}

// System queries the operating system through gopsutil.
//
// On Linux the result is MemFree + Buffers + Cached from /proc/meminfo,
// counting page cache as reclaimable. Elsewhere the OS-reported available
// physical memory counter is used.
type System struct {
	// virtualMemory is swapped out in tests.
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// NewSystem returns a probe backed by the host operating system.
func NewSystem() *System {
	return &System{virtualMemory: mem.VirtualMemory}
}

// Available implements Probe.
func (s *System) Available() int64 {
	vm, err := s.virtualMemory()
	if err != nil || vm == nil {
		return Unavailable
	}
	return available(runtime.GOOS, vm)
}

func available(goos string, vm *mem.VirtualMemoryStat) int64 {
	var n uint64
	if goos == "linux" {
		n = vm.Free + vm.Buffers + vm.Cached
	} else {
		n = vm.Available
	}
	if n == 0 {
		return Unavailable
	}
	return int64(n)
}

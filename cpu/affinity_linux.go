package cpu

import (
	"golang.org/x/sys/unix"
)

// maxCores bounds the affinity mask scan; unix.CPUSet holds 1024 bits.
const maxCores = 1024

func systemCoreIds() ([]CoreId, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return logicalCoreIds()
	}
	ids := make([]CoreId, 0, set.Count())
	for i := 0; i < maxCores && len(ids) < cap(ids); i++ {
		if set.IsSet(i) {
			ids = append(ids, CoreId(i))
		}
	}
	return ids, nil
}

// Pin binds the calling OS thread to a core. Callers must hold the thread
// with runtime.LockOSThread first.
func Pin(id CoreId) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(int(id))
	return unix.SchedSetaffinity(0, &set)
}

package scrypt

import "sync"

// fallbackMaxMemory is the default memory limit when physical memory cannot be determined.
const fallbackMaxMemory = 1 << 30

// availableMemory returns the memory this process may use: physical memory, lowered to the
// cgroup limit when one is set. Zero means unknown.
//
//nolint:gochecknoglobals
var availableMemory = sync.OnceValue(func() uint64 {
	total := physicalMemory()

	if limit := cgroupMemoryLimit(); limit > 0 && (total == 0 || limit < total) {
		total = limit
	}

	return total
})

//nolint:gochecknoglobals
var defaultMaxMemory = sync.OnceValue(func() uint64 {
	if total := availableMemory(); total > 0 {
		return total / 2 //nolint:mnd
	}

	return fallbackMaxMemory
})

// DefaultMaxMemory returns the memory limit applied when Options.MaxMemory is zero:
// half of the memory available to the process, or 1 GiB when that is unknown.
// The available memory is physical memory or the cgroup limit, whichever is lower.
func DefaultMaxMemory() uint64 {
	return defaultMaxMemory()
}

// memoryLimit returns the limit a derivation runs under. Requested limits above the available
// memory are lowered to it.
func memoryLimit(requested, available uint64) uint64 {
	if requested == 0 {
		return DefaultMaxMemory()
	}

	if available > 0 && requested > available {
		return available
	}

	return requested
}

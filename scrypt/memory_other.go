//go:build !linux

package scrypt

func physicalMemory() uint64 {
	return 0
}

func cgroupMemoryLimit() uint64 {
	return 0
}

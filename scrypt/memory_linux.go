package scrypt

import (
	"bytes"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// cgroup v1 reports no limit as a value close to MaxInt64.
const cgroupUnlimited = 1 << 62

// cgroup v2 first, then v1.
//
//nolint:gochecknoglobals
var cgroupLimitFiles = []string{
	"/sys/fs/cgroup/memory.max",
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

func physicalMemory() uint64 {
	var info unix.Sysinfo_t

	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}

	return uint64(info.Totalram) * uint64(info.Unit) //nolint:unconvert
}

func cgroupMemoryLimit() uint64 {
	for _, fname := range cgroupLimitFiles {
		data, err := os.ReadFile(fname) //nolint:gosec
		if err != nil {
			continue
		}

		return parseCgroupMemoryLimit(data)
	}

	return 0
}

// parseCgroupMemoryLimit parses the contents of a cgroup memory limit file.
// "max" and the v1 unlimited value yield zero.
func parseCgroupMemoryLimit(data []byte) uint64 {
	s := string(bytes.TrimSpace(data))
	if s == "max" {
		return 0
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v >= cgroupUnlimited {
		return 0
	}

	return v
}

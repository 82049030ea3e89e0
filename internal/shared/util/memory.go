package util

import (
	"runtime"
)

// RuntimeStats is a point-in-time view of process resource use.
type RuntimeStats struct {
	HeapAllocMB uint64 `json:"heapAllocMB"`
	Goroutines  int    `json:"goroutines"`
}

func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapAllocMB: m.Alloc / 1024 / 1024,
		Goroutines:  runtime.NumGoroutine(),
	}
}

package render

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// workerMemoryBudget is the rough per-encode memory footprint used when
// sizing the pool from available RAM.
const workerMemoryBudget = 512 << 20

// AutoWorkers sizes the slide pool from the host: one worker per logical CPU,
// reduced when available memory cannot sustain that many concurrent encodes,
// capped at DefaultMaxWorkers. Probe failures fall back to a single worker
// rather than guessing.
func AutoWorkers() int {
	workers, err := cpu.Counts(true)
	if err != nil || workers < 1 {
		workers = 1
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		byMemory := int(vm.Available / workerMemoryBudget)
		if byMemory < 1 {
			byMemory = 1
		}
		if byMemory < workers {
			workers = byMemory
		}
	}
	if workers > DefaultMaxWorkers {
		workers = DefaultMaxWorkers
	}
	return workers
}

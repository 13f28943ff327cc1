package analyzer

import (
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
	"github.com/xzmaster54088/Codemate-Android-sub002/internal/workspace"
)

// ResourceUsage estimates what one compile cost the machine.
type ResourceUsage struct {
	CPUPercent float64 // estimated, monotonic in execution time
	MemoryKB   int64   // peak resident set from the process
	DiskBytes  int64   // summed artifact sizes
	Battery    Level
}

// analyzeResources derives resource estimates from the result. CPU is a
// monotonic function of execution time capped below 100; battery steps at
// the 10s and 30s marks.
func analyzeResources(res *compile.Result) ResourceUsage {
	secs := res.ExecutionTime.Seconds()

	cpu := 20 + secs*2.5
	if cpu > 95 {
		cpu = 95
	}

	battery := LevelLow
	switch {
	case secs >= 30:
		battery = LevelHigh
	case secs >= 10:
		battery = LevelMedium
	}

	return ResourceUsage{
		CPUPercent: cpu,
		MemoryKB:   res.PeakMemoryKB,
		DiskBytes:  workspace.ArtifactSizes(res.Artifacts),
		Battery:    battery,
	}
}

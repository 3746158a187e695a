package rslimiter

import (
	"fmt"
	"runtime"

	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryProbe reports system memory usage as a fraction in [0, 1]
type MemoryProbe func() (float64, error)

// SystemMemoryProbe reads usage from the operating system
func SystemMemoryProbe() (float64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to get system memory stats: %w", err)
	}
	return vmStat.UsedPercent / 100.0, nil
}

// MemoryGuard tells the crawl loop when system memory is too high to keep
// opening browser tabs.
type MemoryGuard struct {
	config config.ResourceLimiterConfig
	probe  MemoryProbe
	logger zerolog.Logger
}

// NewMemoryGuard creates a guard; a nil probe uses SystemMemoryProbe
func NewMemoryGuard(cfg config.ResourceLimiterConfig, probe MemoryProbe, logger zerolog.Logger) *MemoryGuard {
	if probe == nil {
		probe = SystemMemoryProbe
	}
	return &MemoryGuard{
		config: cfg,
		probe:  probe,
		logger: logger.With().Str("component", "MemoryGuard").Logger(),
	}
}

// Exceeded reports whether usage is above the configured threshold.
// A disabled guard never trips, and a probe failure is logged and ignored.
func (g *MemoryGuard) Exceeded() bool {
	if g == nil || !g.config.Enabled {
		return false
	}

	used, err := g.probe()
	if err != nil {
		g.logger.Warn().Err(err).Msg("Memory probe failed")
		return false
	}

	if used > g.config.SystemMemThreshold {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		g.logger.Warn().
			Float64("used_percent", used*100).
			Float64("threshold_percent", g.config.SystemMemThreshold*100).
			Uint64("heap_alloc_mb", m.Alloc/1024/1024).
			Msg("System memory usage exceeded threshold")
		return true
	}
	return false
}

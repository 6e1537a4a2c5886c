package config

import (
	"log/slog"

	"github.com/openbench/phasebridge/internal/models"
)

// normalize fills in defaults for fields missing from older config files and
// pulls out-of-range values back to the nearest valid setting.
func normalize(cfg *models.Config) {
	def := models.DefaultConfig()

	switch {
	case cfg.LoopIntervalMS == 0:
		cfg.LoopIntervalMS = def.LoopIntervalMS
	case cfg.LoopIntervalMS < models.MinLoopIntervalMS:
		slog.Warn("config: loop interval too short, clamping", "ms", cfg.LoopIntervalMS)
		cfg.LoopIntervalMS = models.MinLoopIntervalMS
	case cfg.LoopIntervalMS > models.MaxLoopIntervalMS:
		slog.Warn("config: loop interval too long, clamping", "ms", cfg.LoopIntervalMS)
		cfg.LoopIntervalMS = models.MaxLoopIntervalMS
	}

	if cfg.SenseGain <= 0 || cfg.SenseGain > models.MaxSenseGain {
		if cfg.SenseGain != 0 {
			slog.Warn("config: invalid sense gain, using default", "gain", cfg.SenseGain)
		}
		cfg.SenseGain = def.SenseGain
	}
}

package module

import (
	"zeroshot/internal/platform/config"
)

// Options configures the scores module
type Options struct {
	HardLimit int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("CORE_SCORES_")
	return Options{
		HardLimit: sf.MayInt("HARD_LIMIT", 10000),
	}
}

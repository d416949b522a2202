package module

import (
	"zeroshot/internal/platform/config"
)

// Options configures the records module
type Options struct {
	HardLimit  int
	FlushEvery int
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	rf := cfg.Prefix("CORE_RECORDS_")
	return Options{
		HardLimit:  rf.MayInt("HARD_LIMIT", 5000),
		FlushEvery: rf.MayInt("FLUSH_EVERY", 500),
	}
}

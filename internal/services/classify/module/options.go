package module

import "zeroshot/internal/platform/config"

// Options holds configuration settings for the classify module
type Options struct {
	BatchSize int
	PageSize  int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	cf := cfg.Prefix("CORE_CLASSIFY_")
	return Options{
		BatchSize: cf.MayInt("BATCH_SIZE", 16),
		PageSize:  cf.MayInt("PAGE_SIZE", 1000),
	}
}

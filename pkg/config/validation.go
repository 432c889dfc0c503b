package config

import "fmt"

func validate(cfg *Config) error {
	if len(cfg.Device.Models) == 0 {
		return fmt.Errorf("device.models must list at least one model")
	}
	if cfg.Device.ScanTimeoutSecs <= 0 {
		return fmt.Errorf("device.scan_timeout_secs must be positive")
	}

	if cfg.Recording.FlushEverySamples <= 0 {
		return fmt.Errorf("recording.flush_every_samples must be positive")
	}
	if cfg.Recording.PhysicalMinUV >= cfg.Recording.PhysicalMaxUV {
		return fmt.Errorf("recording.physical_min_uv must be less than physical_max_uv")
	}

	if cfg.Validation.TimeoutSecs <= 0 {
		return fmt.Errorf("validation.timeout_secs must be positive")
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port <= 0 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535")
		}
	}

	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}

	return nil
}

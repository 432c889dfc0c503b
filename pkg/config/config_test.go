package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadUsesDefaultsWhenNoFile(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Web.Enabled != true {
		t.Errorf("expected Web.Enabled default true, got %v", cfg.Web.Enabled)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected Web.Port default 8080, got %d", cfg.Web.Port)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected Metrics.Port default 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Validation.TimeoutSecs != 5 {
		t.Errorf("expected Validation.TimeoutSecs default 5, got %d", cfg.Validation.TimeoutSecs)
	}
	if len(cfg.Device.Models) == 0 {
		t.Errorf("expected Device.Models to have defaults")
	}
	if cfg.Store.Path == "" {
		t.Errorf("expected Store.Path to be set by default")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Run("empty device models", func(t *testing.T) {
		cfg := &Config{Device: DeviceConfig{ScanTimeoutSecs: 1}, Validation: ValidationConfig{TimeoutSecs: 1}, Store: StoreConfig{Path: "x"}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for empty device.models")
		}
	})

	t.Run("invalid web port when enabled", func(t *testing.T) {
		cfg := &Config{
			Device:     DeviceConfig{Models: []string{"NeuroPlay-8Cap"}, ScanTimeoutSecs: 1},
			Recording:  RecordingConfig{FlushEverySamples: 1, PhysicalMinUV: -1, PhysicalMaxUV: 1},
			Validation: ValidationConfig{TimeoutSecs: 1},
			Web:        WebConfig{Enabled: true, Port: 70000},
			Store:      StoreConfig{Path: "x"},
		}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for invalid web.port out of range")
		}
	})

	t.Run("recording physical range inverted", func(t *testing.T) {
		cfg := &Config{
			Device:     DeviceConfig{Models: []string{"NeuroPlay-8Cap"}, ScanTimeoutSecs: 1},
			Recording:  RecordingConfig{FlushEverySamples: 1, PhysicalMinUV: 100, PhysicalMaxUV: -100},
			Validation: ValidationConfig{TimeoutSecs: 1},
			Store:      StoreConfig{Path: "x"},
		}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for inverted physical range")
		}
	})

	t.Run("valid config passes", func(t *testing.T) {
		cfg := &Config{
			Device:     DeviceConfig{Models: []string{"NeuroPlay-8Cap"}, ScanTimeoutSecs: 10},
			Recording:  RecordingConfig{FlushEverySamples: 125, PhysicalMinUV: -10000, PhysicalMaxUV: 10000},
			Validation: ValidationConfig{TimeoutSecs: 5},
			Store:      StoreConfig{Path: "neuroplay.db"},
		}
		if err := validate(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

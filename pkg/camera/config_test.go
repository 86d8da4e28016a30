package camera

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if !cfg.Mirror {
		t.Error("default config should mirror the preview")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"negative device", func(c *Config) { c.DeviceID = -1 }, true},
		{"tiny width", func(c *Config) { c.Width = 10 }, true},
		{"huge height", func(c *Config) { c.Height = 10000 }, true},
		{"driver fps", func(c *Config) { c.Framerate = 0 }, false},
		{"bad quality", func(c *Config) { c.Quality = 0 }, true},
		{"negative buffer", func(c *Config) { c.BufferSize = -2 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if tc.wantErr && len(errs) == 0 {
				t.Error("expected validation errors")
			}
			if !tc.wantErr && len(errs) > 0 {
				t.Errorf("unexpected validation errors: %v", errs)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}

	if GetPreset("nope") != nil {
		t.Error("unknown preset should return nil")
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 0
	if _, err := Open(cfg, nil); err == nil {
		t.Error("expected error for invalid config")
	}
}

package config

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DeviceCodeEndpoint != DefaultDeviceCodeEndpoint {
		t.Errorf("device-code-endpoint = %q, want default", cfg.DeviceCodeEndpoint)
	}
	if cfg.TokenEndpoint != DefaultTokenEndpoint {
		t.Errorf("token-endpoint = %q, want default", cfg.TokenEndpoint)
	}
	if cfg.SampleEndpoint != DefaultSampleEndpoint {
		t.Errorf("sample-endpoint = %q, want default", cfg.SampleEndpoint)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("output-dir = %q, want %q", cfg.OutputDir, DefaultOutputDir)
	}
	if cfg.RequestTimeoutSeconds != DefaultRequestTimeoutSeconds {
		t.Errorf("request-timeout-seconds = %d, want %d", cfg.RequestTimeoutSeconds, DefaultRequestTimeoutSeconds)
	}
	if matched := regexp.MustCompile(`^\d{8}_\d{6}$`).MatchString(cfg.Timestamp); !matched {
		t.Errorf("timestamp = %q, want YYYYMMDD_HHMMSS", cfg.Timestamp)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Parallel()

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
device-code-endpoint: https://auth.test.local/device/code
token-endpoint: https://auth.test.local/token
sample-endpoint: https://api.test.local/v2/sample
output-dir: run-outputs
proxy-url: http://proxy.test.local:3128
request-timeout-seconds: 30
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DeviceCodeEndpoint != "https://auth.test.local/device/code" {
		t.Errorf("device-code-endpoint = %q", cfg.DeviceCodeEndpoint)
	}
	if cfg.OutputDir != "run-outputs" {
		t.Errorf("output-dir = %q", cfg.OutputDir)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("request-timeout-seconds = %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.HTTPClient().Transport == nil {
		t.Error("proxy-url set but client has no custom transport")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	badEndpoint := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(badEndpoint, []byte("token-endpoint: ':not a url'\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	emptyOutput := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(emptyOutput, []byte(`output-dir: ""`+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	notYAML := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(notYAML, []byte("{{nope"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"named file does not exist", filepath.Join(t.TempDir(), "absent.yaml")},
		{"invalid endpoint URL", badEndpoint},
		{"empty output dir", emptyOutput},
		{"unparseable YAML", notYAML},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(tt.path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

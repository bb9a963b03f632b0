// Package config provides configuration management for the qiagen-upload CLI
// tools. It assembles an immutable run configuration from built-in defaults,
// an optional YAML file, and the process environment, and validates it once
// at startup before it is handed to the domain components.
package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDeviceCodeEndpoint is the QiaOAuth device-authorization endpoint.
	DefaultDeviceCodeEndpoint = "https://apps.qiagenbioinformatics.eu/qiaoauth/oauth/device/code"
	// DefaultTokenEndpoint is the QiaOAuth token endpoint used for the device-code grant.
	DefaultTokenEndpoint = "https://apps.qiagenbioinformatics.eu/qiaoauth/oauth/token"
	// DefaultSampleEndpoint is the QCI sample-ingestion endpoint.
	DefaultSampleEndpoint = "https://api.qiagenbioinformatics.eu/v2/sample"
	// DefaultOutputDir is where run artifacts (logs, codes, the upload ZIP) are written.
	DefaultOutputDir = "outputs"
	// DefaultRequestTimeoutSeconds bounds each HTTP call to the vendor endpoints.
	DefaultRequestTimeoutSeconds = 120

	// timestampLayout names run artifacts, e.g. get_user_code_20260824_153000.log.
	timestampLayout = "20060102_150405"
)

// Config represents the application's configuration, loaded from an optional
// YAML file on top of built-in defaults. One Config describes exactly one
// invocation; it is never mutated after Load returns.
type Config struct {
	// DeviceCodeEndpoint is the URL for initiating the OAuth 2.0 device authorization flow.
	DeviceCodeEndpoint string `yaml:"device-code-endpoint"`

	// TokenEndpoint is the URL for exchanging a device code for an access token.
	TokenEndpoint string `yaml:"token-endpoint"`

	// SampleEndpoint is the URL the sample ZIP bundle is uploaded to.
	SampleEndpoint string `yaml:"sample-endpoint"`

	// OutputDir is the directory for run artifacts: log files, persisted
	// device-session codes, and the generated upload bundle.
	OutputDir string `yaml:"output-dir"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`

	// RequestTimeoutSeconds bounds each individual HTTP request. <= 0 selects the default.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds"`

	// Timestamp is fixed when the configuration is loaded and names every
	// artifact of this run. Not part of the YAML surface.
	Timestamp string `yaml:"-"`
}

// Load builds the run configuration. configFile may be empty, in which case
// the built-in defaults are used unchanged; a named file that does not exist
// is an error so that typos fail loudly rather than silently falling back.
func Load(configFile string) (*Config, error) {
	cfg := &Config{
		DeviceCodeEndpoint:    DefaultDeviceCodeEndpoint,
		TokenEndpoint:         DefaultTokenEndpoint,
		SampleEndpoint:        DefaultSampleEndpoint,
		OutputDir:             DefaultOutputDir,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", configFile, err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", configFile, err)
		}
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	cfg.Timestamp = time.Now().Format(timestampLayout)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that cannot possibly produce a working run.
func (c *Config) validate() error {
	for name, value := range map[string]string{
		"device-code-endpoint": c.DeviceCodeEndpoint,
		"token-endpoint":       c.TokenEndpoint,
		"sample-endpoint":      c.SampleEndpoint,
	} {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s %q is not a valid absolute URL", name, value)
		}
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output-dir must not be empty")
	}
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return fmt.Errorf("config: proxy-url %q is not a valid URL: %w", c.ProxyURL, err)
		}
	}
	return nil
}

// HTTPClient returns an HTTP client honouring the configured proxy and
// per-request timeout. Each call returns a fresh client so components never
// share transport state.
func (c *Config) HTTPClient() *http.Client {
	client := &http.Client{
		Timeout: time.Duration(c.RequestTimeoutSeconds) * time.Second,
	}
	if c.ProxyURL != "" {
		if proxyURL, err := url.Parse(c.ProxyURL); err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return client
}

package qiaoauth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DeviceSession represents the response from the device authorization
// endpoint plus the PKCE verifier generated for it. QiaOAuth answers with
// camelCase field names.
type DeviceSession struct {
	// DeviceCode is the machine-held code later exchanged for an access token.
	DeviceCode string `json:"deviceCode"`
	// UserCode is the code the operator enters at the verification URI.
	UserCode string `json:"userCode"`
	// VerificationURI is where the operator registers the user code.
	VerificationURI string `json:"verificationUri"`
	// ExpiresIn is the time in seconds until the device and user codes expire.
	ExpiresIn int `json:"expiresIn"`
	// Interval is the minimum polling interval suggested by the server.
	Interval int `json:"interval"`
	// CodeVerifier is the PKCE verifier; generated locally, never returned by
	// the server, and only transmitted at token exchange.
	CodeVerifier string `json:"-"`
}

// SaveArtifacts persists the code verifier, device code and user code each to
// its own single-line file under dir, named with the run timestamp. The
// operator feeds these values into the upload invocation after completing the
// out-of-band user-code registration. Returns the written paths.
func (s *DeviceSession) SaveArtifacts(dir, timestamp string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := []struct {
		name  string
		value string
	}{
		{fmt.Sprintf("qiagen_code_verifier_%s", timestamp), s.CodeVerifier},
		{fmt.Sprintf("qiagen_device_code_%s", timestamp), s.DeviceCode},
		{fmt.Sprintf("qiagen_user_code_%s", timestamp), s.UserCode},
	}

	paths := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		path := filepath.Join(dir, artifact.name)
		if err := os.WriteFile(path, []byte(artifact.value+"\n"), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", artifact.name, err)
		}
		log.Infof("Saved %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadArtifact reads a single-line secret file written by SaveArtifacts.
func ReadArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("artifact %s is empty", path)
	}
	return value, nil
}

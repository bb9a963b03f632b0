// Package main provides the entry point for the qiagen_upload tool.
// It builds the per-sample ZIP/XML bundle, exchanges the previously issued
// device code for an access token, and uploads the bundle to the QCI
// sample-ingestion API. The three steps run in strict sequence; any failure
// is fatal and the operator re-runs with corrected inputs or a fresh device
// code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/moka-guys/qiagen-upload/internal/buildinfo"
	"github.com/moka-guys/qiagen-upload/internal/bundle"
	"github.com/moka-guys/qiagen-upload/internal/config"
	"github.com/moka-guys/qiagen-upload/internal/logging"
	"github.com/moka-guys/qiagen-upload/internal/qiaoauth"
	"github.com/moka-guys/qiagen-upload/internal/upload"
	log "github.com/sirupsen/logrus"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	fmt.Printf("qiagen_upload Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var sampleName string
	var samplePath string
	var clientID string
	var clientSecret string
	var codeVerifier string
	var deviceCode string
	var configPath string

	flag.StringVar(&sampleName, "S", "", "Sample name string")
	flag.StringVar(&samplePath, "Z", "", "Folder or ZIP containing the sample's variant files")
	flag.StringVar(&clientID, "CI", "", "Client ID provided by Qiagen (or QIAGEN_CLIENT_ID)")
	flag.StringVar(&clientSecret, "CS", "", "Client secret provided by Qiagen (or QIAGEN_CLIENT_SECRET)")
	flag.StringVar(&codeVerifier, "C", "", "Code verifier value, or path to the file saved by get_user_code")
	flag.StringVar(&deviceCode, "D", "", "Device code value, or path to the file saved by get_user_code")
	flag.StringVar(&configPath, "config", "", "Optional YAML configuration file path")
	flag.Parse()

	_ = godotenv.Load()
	if clientID == "" {
		clientID = os.Getenv("QIAGEN_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("QIAGEN_CLIENT_SECRET")
	}

	missing := missingArguments(sampleName, samplePath, clientID, clientSecret, codeVerifier, deviceCode)
	if len(missing) > 0 {
		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "qiagen_upload: required argument %s is missing\n", name)
		}
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qiagen_upload: %v\n", err)
		os.Exit(1)
	}

	logPath, err := logging.ConfigureLogOutput(cfg.OutputDir, "qiagen_upload", cfg.Timestamp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qiagen_upload: %v\n", err)
		os.Exit(1)
	}
	logger := log.WithField("run_id", logging.NewRunID())
	logger.Debugf("Logging to %s", logPath)

	// The operator may pass the artifact files from get_user_code instead of
	// pasting the raw values.
	codeVerifier, err = resolveSecret(codeVerifier)
	if err != nil {
		logger.Errorf("Failed to read code verifier: %v", err)
		log.Exit(1)
	}
	deviceCode, err = resolveSecret(deviceCode)
	if err != nil {
		logger.Errorf("Failed to read device code: %v", err)
		log.Exit(1)
	}

	ctx := context.Background()

	builder := bundle.NewBuilder(sampleName, samplePath, cfg.OutputDir)
	built, err := builder.Build()
	if err != nil {
		logger.Errorf("Bundle construction failed: %v", err)
		log.Exit(1)
	}

	client := qiaoauth.NewClient(cfg)
	creds := qiaoauth.Credentials{ClientID: clientID, ClientSecret: clientSecret}
	token, err := client.ExchangeToken(ctx, creds, deviceCode, codeVerifier)
	if err != nil {
		logger.Errorf("Token exchange failed: %v", err)
		log.Exit(1)
	}

	uploader := upload.NewUploader(cfg)
	result, err := uploader.Upload(ctx, token, built.ZipPath)
	if err != nil {
		logger.Errorf("Upload failed: %v", err)
		logger.Infof("Bundle retained at %s for manual resubmission", built.ZipPath)
		log.Exit(1)
	}

	logger.Infof("Upload result: %s - %s", result.Status, result.ServerMessage)
	log.Exit(0)
}

// missingArguments returns the flag names of required arguments left unset.
func missingArguments(sampleName, samplePath, clientID, clientSecret, codeVerifier, deviceCode string) []string {
	var missing []string
	for _, arg := range []struct {
		name  string
		value string
	}{
		{"-S (sample name)", sampleName},
		{"-Z (sample path)", samplePath},
		{"-CI (client ID)", clientID},
		{"-CS (client secret)", clientSecret},
		{"-C (code verifier)", codeVerifier},
		{"-D (device code)", deviceCode},
	} {
		if arg.value == "" {
			missing = append(missing, arg.name)
		}
	}
	return missing
}

// resolveSecret returns the value itself, or the single-line contents of the
// file it names when it points at an artifact saved by get_user_code.
func resolveSecret(value string) (string, error) {
	info, err := os.Stat(value)
	if err != nil || info.IsDir() {
		return value, nil
	}
	return qiaoauth.ReadArtifact(value)
}

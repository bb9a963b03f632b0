// Package main provides the entry point for the get_user_code tool.
// It starts a QiaOAuth device-authorization session: generates a PKCE pair,
// requests a device code, shows the operator the user code to register
// out-of-band, and persists the session artifacts for the later upload run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/moka-guys/qiagen-upload/internal/buildinfo"
	"github.com/moka-guys/qiagen-upload/internal/config"
	"github.com/moka-guys/qiagen-upload/internal/logging"
	"github.com/moka-guys/qiagen-upload/internal/qiaoauth"
	log "github.com/sirupsen/logrus"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

func main() {
	fmt.Printf("get_user_code Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var clientID string
	var configPath string

	flag.StringVar(&clientID, "CI", "", "Client ID provided by Qiagen (or QIAGEN_CLIENT_ID)")
	flag.StringVar(&configPath, "config", "", "Optional YAML configuration file path")
	flag.Parse()

	// A .env file may carry the client credentials in deployments where the
	// wrapper pipeline cannot pass them as flags.
	_ = godotenv.Load()
	if clientID == "" {
		clientID = os.Getenv("QIAGEN_CLIENT_ID")
	}
	if clientID == "" {
		fmt.Fprintln(os.Stderr, "get_user_code: a client ID is required (-CI or QIAGEN_CLIENT_ID)")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get_user_code: %v\n", err)
		os.Exit(1)
	}

	logPath, err := logging.ConfigureLogOutput(cfg.OutputDir, "get_user_code", cfg.Timestamp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get_user_code: %v\n", err)
		os.Exit(1)
	}
	logger := log.WithField("run_id", logging.NewRunID())
	logger.Debugf("Logging to %s", logPath)

	client := qiaoauth.NewClient(cfg)
	session, err := client.InitiateDeviceFlow(context.Background(), clientID)
	if err != nil {
		logger.Errorf("Device authorization failed: %v", err)
		log.Exit(1)
	}

	if _, err = session.SaveArtifacts(cfg.OutputDir, cfg.Timestamp); err != nil {
		logger.Errorf("Failed to persist device session: %v", err)
		log.Exit(1)
	}

	logger.Infof("User code: %s", session.UserCode)
	logger.Infof("Register the user code at %s", session.VerificationURI)
	logger.Infof("Then run qiagen_upload with the saved device code and code verifier files")
	log.Exit(0)
}

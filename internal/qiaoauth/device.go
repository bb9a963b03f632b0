// Package qiaoauth implements the client side of the QiaOAuth device
// authorization flow: PKCE pair generation, device-code issuance, persistence
// of the session artifacts, and the one-shot exchange of a device code for an
// access token.
package qiaoauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/moka-guys/qiagen-upload/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Client talks to the QiaOAuth authorization server.
type Client struct {
	httpClient         *http.Client
	deviceCodeEndpoint string
	tokenEndpoint      string
}

// NewClient creates a Client from the run configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:         cfg.HTTPClient(),
		deviceCodeEndpoint: cfg.DeviceCodeEndpoint,
		tokenEndpoint:      cfg.TokenEndpoint,
	}
}

// deviceCodeRequest is the JSON body QiaOAuth expects at the device endpoint.
type deviceCodeRequest struct {
	ClientID            string `json:"client_id"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
}

// InitiateDeviceFlow starts the OAuth 2.0 device authorization flow. It
// generates a fresh PKCE pair, sends the challenge with the client ID, and
// returns the resulting session with the verifier attached. A failed call is
// fatal to the flow; the server issues a new device code per request, so
// retrying the same request is never correct.
func (c *Client) InitiateDeviceFlow(ctx context.Context, clientID string) (*DeviceSession, error) {
	codeVerifier, codeChallenge, err := GeneratePKCEPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE pair: %w", err)
	}

	payload, err := json.Marshal(deviceCodeRequest{
		ClientID:            clientID,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: CodeChallengeMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode device code request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.deviceCodeEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Info("Requesting device code from authorization server")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthServerError{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := resp.Status
		if errCode := gjson.GetBytes(body, "error"); errCode.Exists() {
			message = errCode.String()
			if desc := gjson.GetBytes(body, "error_description"); desc.Exists() {
				message += " - " + desc.String()
			}
		}
		return nil, &AuthServerError{StatusCode: resp.StatusCode, Message: message}
	}

	var session DeviceSession
	if err = json.Unmarshal(body, &session); err != nil {
		return nil, &AuthServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse device flow response: %v", err)}
	}
	if session.DeviceCode == "" {
		return nil, &AuthServerError{StatusCode: resp.StatusCode, Message: "deviceCode not found in response"}
	}

	session.CodeVerifier = codeVerifier
	log.Infof("Device code issued, expires in %d seconds", session.ExpiresIn)
	return &session, nil
}

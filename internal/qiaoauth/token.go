package qiaoauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// GrantTypeDeviceCode is the OAuth 2.0 grant type for the device-code flow.
const GrantTypeDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// Credentials are the vendor-issued client credentials. The secret is only
// ever transmitted as a Basic Authorization header to the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Token is a successful token endpoint response. It is held in memory for the
// lifetime of one invocation and never persisted.
type Token struct {
	AccessToken string `json:"access_token"`
	// TokenType indicates the type of token, typically "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresIn is the time in seconds until the access token expires.
	ExpiresIn int `json:"expires_in"`
}

// AuthorizationValue returns the value for the Authorization header of
// ingestion requests. The QCI API expects the bare access token.
func (t *Token) AuthorizationValue() string {
	return t.AccessToken
}

// ExchangeToken performs a single exchange of the device code for an access
// token. The device code is single-use server side: on any failure the
// operator must obtain a fresh one rather than re-run the exchange, so no
// polling or retrying happens here. OAuth error codes from the server are
// preserved on the returned *TokenExchangeError.
func (c *Client) ExchangeToken(ctx context.Context, creds Credentials, deviceCode, codeVerifier string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", GrantTypeDeviceCode)
	data.Set("device_code", deviceCode)
	data.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	log.Info("Exchanging device code for access token")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Description: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Description: fmt.Sprintf("failed to read response body: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		exchangeErr := &TokenExchangeError{StatusCode: resp.StatusCode, Description: resp.Status}
		if errCode := gjson.GetBytes(body, "error"); errCode.Exists() {
			exchangeErr.Reason = errCode.String()
			exchangeErr.Description = gjson.GetBytes(body, "error_description").String()
		}
		return nil, exchangeErr
	}

	var token Token
	if err = json.Unmarshal(body, &token); err != nil {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Description: fmt.Sprintf("failed to parse token response: %v", err)}
	}
	if token.AccessToken == "" {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Description: "access_token not found in response"}
	}

	log.Infof("Access token obtained, expires in %d seconds", token.ExpiresIn)
	return &token, nil
}

package qiaoauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-abc" || pass != "secret-xyz" {
			t.Errorf("basic auth = %q/%q/%v, want client credentials", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != GrantTypeDeviceCode {
			t.Errorf("grant_type = %q, want %q", got, GrantTypeDeviceCode)
		}
		if got := r.PostForm.Get("device_code"); got != "dev-123" {
			t.Errorf("device_code = %q, want dev-123", got)
		}
		if got := r.PostForm.Get("code_verifier"); got != "verifier-456" {
			t.Errorf("code_verifier = %q, want verifier-456", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-789","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, server.URL))
	creds := Credentials{ClientID: "client-abc", ClientSecret: "secret-xyz"}
	token, err := client.ExchangeToken(context.Background(), creds, "dev-123", "verifier-456")
	if err != nil {
		t.Fatalf("ExchangeToken: %v", err)
	}

	if token.AccessToken != "tok-789" || token.TokenType != "Bearer" || token.ExpiresIn != 3600 {
		t.Errorf("unexpected token: %+v", token)
	}
	if token.AuthorizationValue() != "tok-789" {
		t.Errorf("AuthorizationValue = %q, want the bare token", token.AuthorizationValue())
	}
}

func TestExchangeTokenOAuthErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantReason string
	}{
		{"consumed or expired device code", `{"error":"expired_token","error_description":"device code expired"}`, ReasonExpiredToken},
		{"user has not registered yet", `{"error":"authorization_pending","error_description":"user code not confirmed"}`, ReasonAuthorizationPending},
		{"user rejected the request", `{"error":"access_denied"}`, ReasonAccessDenied},
		{"client polling too fast", `{"error":"slow_down"}`, ReasonSlowDown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL, server.URL))
			creds := Credentials{ClientID: "client-abc", ClientSecret: "secret-xyz"}
			_, err := client.ExchangeToken(context.Background(), creds, "dev-123", "verifier-456")

			var exchangeErr *TokenExchangeError
			if !errors.As(err, &exchangeErr) {
				t.Fatalf("error = %v, want *TokenExchangeError", err)
			}
			if exchangeErr.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", exchangeErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestExchangeTokenMalformedSuccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>so wrong</html>`},
		{"missing access token", `{"token_type":"Bearer"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL, server.URL))
			creds := Credentials{ClientID: "client-abc", ClientSecret: "secret-xyz"}
			_, err := client.ExchangeToken(context.Background(), creds, "dev-123", "verifier-456")

			var exchangeErr *TokenExchangeError
			if !errors.As(err, &exchangeErr) {
				t.Fatalf("error = %v, want *TokenExchangeError", err)
			}
		})
	}
}

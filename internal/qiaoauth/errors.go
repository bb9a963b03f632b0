package qiaoauth

import "fmt"

// OAuth error codes returned by the token endpoint for the device-code grant
// (RFC 8628 §3.5). Each one is a distinguishable outcome for the operator.
const (
	ReasonAuthorizationPending = "authorization_pending"
	ReasonSlowDown             = "slow_down"
	ReasonExpiredToken         = "expired_token"
	ReasonAccessDenied         = "access_denied"
)

// AuthServerError indicates that the device-authorization endpoint rejected
// the request or answered with something other than a device session.
type AuthServerError struct {
	// StatusCode optionally records the HTTP status of the failed call.
	StatusCode int
	// Message is a human readable description of the failure.
	Message string
}

func (e *AuthServerError) Error() string {
	if e == nil {
		return "qiaoauth: device authorization failed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("qiaoauth: device authorization failed: %d %s", e.StatusCode, e.Message)
	}
	return "qiaoauth: device authorization failed: " + e.Message
}

// TokenExchangeError indicates that the device code could not be exchanged
// for an access token. Reason carries the server's OAuth error code so that
// pending, expired and denied outcomes stay distinguishable.
type TokenExchangeError struct {
	// Reason is the OAuth error code, e.g. "expired_token". Empty when the
	// server response carried no recognisable error payload.
	Reason string
	// Description is the server-provided error description, if any.
	Description string
	// StatusCode optionally records the HTTP status of the failed call.
	StatusCode int
}

func (e *TokenExchangeError) Error() string {
	if e == nil {
		return "qiaoauth: token exchange failed"
	}
	switch {
	case e.Reason != "" && e.Description != "":
		return fmt.Sprintf("qiaoauth: token exchange failed: %s - %s", e.Reason, e.Description)
	case e.Reason != "":
		return "qiaoauth: token exchange failed: " + e.Reason
	case e.StatusCode != 0:
		return fmt.Sprintf("qiaoauth: token exchange failed: %d %s", e.StatusCode, e.Description)
	default:
		return "qiaoauth: token exchange failed: " + e.Description
	}
}

package qiaoauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// CodeChallengeMethod is the PKCE challenge transform sent to the
// authorization server. Only S256 is supported by QiaOAuth.
const CodeChallengeMethod = "S256"

// GenerateCodeVerifier generates a cryptographically random string for the
// PKCE code verifier. 32 bytes of entropy encode to 43 base64url characters,
// the minimum length RFC 7636 allows.
func GenerateCodeVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallenge creates the SHA-256 hash of the code verifier, base64url
// encoded without padding, used as the PKCE code challenge.
func CodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GeneratePKCEPair creates a new code verifier and its corresponding code challenge.
func GeneratePKCEPair() (codeVerifier, codeChallenge string, err error) {
	codeVerifier, err = GenerateCodeVerifier()
	if err != nil {
		return "", "", err
	}
	return codeVerifier, CodeChallenge(codeVerifier), nil
}

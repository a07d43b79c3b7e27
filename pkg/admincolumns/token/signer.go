// Package token issues and validates anti-forgery tokens bound to a session.
//
// A token has the form "{expires}.{signature}" where signature is the hex
// HMAC-SHA256 of "ACTION|SESSION|EXPIRES" under the configured secret.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultAction is the action name used when none is configured
const DefaultAction = "hide_admin_columns"

// DefaultLifetime matches the lifetime of a host admin nonce
const DefaultLifetime = 24 * time.Hour

// Signer generates and validates HMAC-signed anti-forgery tokens
type Signer struct {
	secretKey []byte
	lifetime  time.Duration
	action    string
	now       func() time.Time
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		lifetime: DefaultLifetime,
		action:   DefaultAction,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate issues a token for the given session
func (s *Signer) Generate(sessionID string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrNoSecretKey
	}

	expiresAt := s.now().Add(s.lifetime).Unix()
	signature := s.generateSignature(s.createPayload(sessionID, expiresAt))

	return fmt.Sprintf("%d.%s", expiresAt, signature), nil
}

// Validate checks that token was issued for sessionID by this signer and has not expired
func (s *Signer) Validate(token, sessionID string) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}
	if token == "" {
		return ErrMissingToken
	}

	expiresStr, signature, ok := strings.Cut(token, ".")
	if !ok || signature == "" {
		return ErrMalformedToken
	}
	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if s.now().Unix() > expiresAt {
		return ErrExpired
	}

	expectedSignature := s.generateSignature(s.createPayload(sessionID, expiresAt))

	// Compare signatures using constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return ErrInvalidSignature
	}

	return nil
}

// createPayload creates the signature payload: ACTION|SESSION|EXPIRES
func (s *Signer) createPayload(sessionID string, expiresAt int64) string {
	return fmt.Sprintf("%s|%s|%d", s.action, sessionID, expiresAt)
}

// generateSignature generates HMAC-SHA256 signature for the given payload
func (s *Signer) generateSignature(payload string) string {
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

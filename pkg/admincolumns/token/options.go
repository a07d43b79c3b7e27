package token

import "time"

// Option configures a Signer
type Option func(*Signer)

// WithSecretKey sets the HMAC secret used to sign tokens
func WithSecretKey(secretKey string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(secretKey)
	}
}

// WithLifetime sets how long an issued token stays valid
func WithLifetime(d time.Duration) Option {
	return func(s *Signer) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithAction sets the action name mixed into every signature
func WithAction(action string) Option {
	return func(s *Signer) {
		if action != "" {
			s.action = action
		}
	}
}

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

package recipeauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/recipeauth/ledger"
	"github.com/MrEthical07/recipeauth/password"
	"github.com/MrEthical07/recipeauth/session"
)

// Config defines a public type used by recipeauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Ledger   LedgerConfig
	Session  SessionConfig
	Password PasswordConfig
	Account  AccountConfig
	Provider ProviderConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
LEDGER CONFIG
====================================
*/

// LedgerConfig is the change quota policy for email and password changes.
type LedgerConfig struct {
	Limit  int
	Window time.Duration
	Key    string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by recipeauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// Key is the cache key of the current session record.
	Key string
	// RedisPrefix namespaces keys when the store is Redis backed.
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by recipeauth APIs.
//
// Argon2 parameters apply to credentials remembered for local sessions.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// CredentialsKey is the cache key of remembered local credentials.
	CredentialsKey string
	// RememberLocal stores a hash of the password when a session falls back
	// to local.
	RememberLocal bool
	// VerifyCurrent checks the current password before a password change
	// whenever a verifier can vouch for the session.
	VerifyCurrent bool
}

func (p PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:      p.Memory,
		Time:        p.Time,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig defines a public type used by recipeauth APIs.
type AccountConfig struct {
	MinNameLength int
	// SanitizeNames strips markup from display names.
	SanitizeNames bool
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig bounds identity provider calls.
type ProviderConfig struct {
	// CallTimeout applies to every provider call. Zero disables the bound.
	CallTimeout time.Duration
}

// AuditConfig defines a public type used by recipeauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by recipeauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	lc := ledger.DefaultConfig()
	pc := password.DefaultConfig()
	return Config{
		Ledger: LedgerConfig{
			Limit:  lc.Limit,
			Window: lc.Window,
			Key:    lc.Key,
		},
		Session: SessionConfig{
			Key:         session.DefaultKey,
			RedisPrefix: "recipeauth",
		},
		Password: PasswordConfig{
			MinLength:      password.DefaultMinLength,
			Memory:         pc.Memory,
			Time:           pc.Time,
			Parallelism:    pc.Parallelism,
			SaltLength:     pc.SaltLength,
			KeyLength:      pc.KeyLength,
			CredentialsKey: "localCredentials",
			RememberLocal:  true,
			VerifyCurrent:  true,
		},
		Account: AccountConfig{
			MinNameLength: 2,
			SanitizeNames: true,
		},
		Provider: ProviderConfig{
			CallTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate returns the first invalid setting it finds.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Ledger
	if c.Ledger.Limit <= 0 {
		return errors.New("Ledger Limit must be > 0")
	}
	if c.Ledger.Window <= 0 {
		return errors.New("Ledger Window must be > 0")
	}
	if c.Ledger.Key == "" {
		return errors.New("Ledger Key must not be empty")
	}

	// Session
	if c.Session.Key == "" {
		return errors.New("Session Key must not be empty")
	}
	if c.Session.Key == c.Ledger.Key || c.Session.Key == c.Password.CredentialsKey {
		return errors.New("Session Key must differ from the ledger and credentials keys")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if err := c.Password.hasherConfig().Validate(); err != nil {
		return fmt.Errorf("Password hashing: %w", err)
	}
	if c.Password.CredentialsKey == "" {
		return errors.New("Password CredentialsKey must not be empty")
	}
	if c.Password.CredentialsKey == c.Ledger.Key {
		return errors.New("Password CredentialsKey must differ from the ledger key")
	}

	// Account
	if c.Account.MinNameLength < 1 {
		return errors.New("Account MinNameLength must be >= 1")
	}

	// Provider
	if c.Provider.CallTimeout < 0 {
		return errors.New("Provider CallTimeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

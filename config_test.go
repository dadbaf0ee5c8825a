package recipeauth

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/recipeauth/password"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Ledger.Limit != 3 || cfg.Ledger.Window != 14*24*time.Hour {
		t.Fatalf("unexpected ledger policy %+v", cfg.Ledger)
	}
	if cfg.Session.Key != "currentSessionUser" || cfg.Ledger.Key != "accountChangeLedger" {
		t.Fatalf("unexpected keys %q %q", cfg.Session.Key, cfg.Ledger.Key)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
		weak      bool
	}{
		{
			name:      "ledger limit zero",
			mutate:    func(c *Config) { c.Ledger.Limit = 0 },
			wantValid: false,
		},
		{
			name:      "ledger window negative",
			mutate:    func(c *Config) { c.Ledger.Window = -time.Hour },
			wantValid: false,
		},
		{
			name:      "ledger window short still valid",
			mutate:    func(c *Config) { c.Ledger.Window = time.Hour },
			wantValid: true,
		},
		{
			name:      "session key empty",
			mutate:    func(c *Config) { c.Session.Key = "" },
			wantValid: false,
		},
		{
			name:      "session key collides with ledger",
			mutate:    func(c *Config) { c.Session.Key = c.Ledger.Key },
			wantValid: false,
		},
		{
			name:      "credentials key collides with ledger",
			mutate:    func(c *Config) { c.Password.CredentialsKey = c.Ledger.Key },
			wantValid: false,
		},
		{
			name:      "argon2 memory below floor",
			mutate:    func(c *Config) { c.Password.Memory = 1024 },
			wantValid: false,
			weak:      true,
		},
		{
			name:      "argon2 salt too short",
			mutate:    func(c *Config) { c.Password.SaltLength = 8 },
			wantValid: false,
			weak:      true,
		},
		{
			name:      "min name length zero",
			mutate:    func(c *Config) { c.Account.MinNameLength = 0 },
			wantValid: false,
		},
		{
			name:      "provider timeout disabled",
			mutate:    func(c *Config) { c.Provider.CallTimeout = 0 },
			wantValid: true,
		},
		{
			name:      "provider timeout negative",
			mutate:    func(c *Config) { c.Provider.CallTimeout = -time.Second },
			wantValid: false,
		},
		{
			name: "audit buffer zero",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "histograms without metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.weak && !errors.Is(err, password.ErrWeakParameters) {
				t.Fatalf("expected ErrWeakParameters, got %v", err)
			}
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger.Limit = 0
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestEngineConfigIsACopy(t *testing.T) {
	te := newTestEngine(t)
	cfg := te.Config()
	cfg.Ledger.Limit = 99
	if te.Config().Ledger.Limit != 3 {
		t.Fatal("mutating the returned config must not affect the engine")
	}
}

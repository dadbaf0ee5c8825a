package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/recipeauth/cache"
)

const (
	storeFile      = "file"
	storeRedis     = "redis"
	storePostgres  = "postgres"
	storeMiniredis = "miniredis"
)

// cliConfig is read once from RECIPEAUTH_* variables and then overridden by
// global flags.
type cliConfig struct {
	Store       string
	Dir         string
	RedisAddr   string
	DatabaseURL string

	APIKey            string
	Endpoint          string
	RequestsPerSecond float64

	Timeout time.Duration
	Verbose bool
}

func loadConfig(getenv func(string) string) (cliConfig, error) {
	cfg := cliConfig{
		Store:    storeFile,
		Dir:      cache.DefaultDir(),
		Timeout:  30 * time.Second,
		Endpoint: getenv("RECIPEAUTH_ENDPOINT"),
		APIKey:   getenv("RECIPEAUTH_API_KEY"),
	}
	if v := getenv("RECIPEAUTH_STORE"); v != "" {
		cfg.Store = v
	}
	if v := getenv("RECIPEAUTH_DIR"); v != "" {
		cfg.Dir = v
	}
	cfg.RedisAddr = getenv("RECIPEAUTH_REDIS_ADDR")
	cfg.DatabaseURL = getenv("RECIPEAUTH_DATABASE_URL")

	if v := getenv("RECIPEAUTH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cliConfig{}, fmt.Errorf("RECIPEAUTH_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := getenv("RECIPEAUTH_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cliConfig{}, fmt.Errorf("RECIPEAUTH_RPS: %w", err)
		}
		cfg.RequestsPerSecond = f
	}
	if v := getenv("RECIPEAUTH_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cliConfig{}, fmt.Errorf("RECIPEAUTH_VERBOSE: %w", err)
		}
		cfg.Verbose = b
	}
	return cfg, nil
}

// parseGlobal applies global flags over cfg and returns the remaining args.
func parseGlobal(cfg cliConfig, args []string, stderr io.Writer) (cliConfig, []string, error) {
	fs := flag.NewFlagSet("recipeauth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }

	fs.StringVar(&cfg.Store, "store", cfg.Store, "session store: file, redis, postgres or miniredis")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory for the file store")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the redis store")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres DSN for the postgres store")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "identity provider API key; empty runs in local mode")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "identity provider base URL")
	fs.Float64Var(&cfg.RequestsPerSecond, "rps", cfg.RequestsPerSecond, "outbound provider request limit (0 = unlimited)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall command timeout")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, nil, err
	}
	if err := cfg.validate(); err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func (c cliConfig) validate() error {
	var missing []string
	switch c.Store {
	case storeFile:
		if c.Dir == "" {
			missing = append(missing, "RECIPEAUTH_DIR")
		}
	case storeRedis:
		if c.RedisAddr == "" {
			missing = append(missing, "RECIPEAUTH_REDIS_ADDR")
		}
	case storePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "RECIPEAUTH_DATABASE_URL")
		}
	case storeMiniredis:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings for %s store: %s", c.Store, strings.Join(missing, ", "))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	return nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, `usage: recipeauth [flags] <command> [command flags]

commands:
  login     -email E            sign in (password is prompted)
  register  -email E -name N    create an account
  logout                        end the current session
  reset     -email E            request a password reset email
  whoami                        show the current session
  update    [-name N] [-email E] [-password]
                                edit the signed-in account
  quota     [-email E]          show remaining email/password changes

flags:`)
	fs.PrintDefaults()
}

var getenv = os.Getenv

// Package config loads the harness configuration from a YAML file, with environment
// variable overrides for the pieces that differ between local and containerized runs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeoutSeconds is the request timeout used by the API client unless the
	// configuration says otherwise.
	DefaultTimeoutSeconds = 30

	// DegradedTimeoutSeconds is the shorter timeout used by tests that exercise the
	// target's behavior when a backend is slow.
	DegradedTimeoutSeconds = 5
)

// ReloginPolicy declares how the target service handles a LOGIN for a token that is
// already logged in. The contract tolerates either behavior, so the target must declare
// which one it implements for the suite to assert exactly.
type ReloginPolicy string

const (
	ReloginOverwrite ReloginPolicy = "overwrite" // second LOGIN succeeds, session replaced
	ReloginReject    ReloginPolicy = "reject"    // second LOGIN returns an ERROR envelope
)

// LogoutPolicy declares how the target service handles a LOGOUT for a token that is not
// logged in.
type LogoutPolicy string

const (
	LogoutIdempotent LogoutPolicy = "ok"    // LOGOUT of an unknown token returns OK
	LogoutStrict     LogoutPolicy = "error" // LOGOUT of an unknown token returns an ERROR envelope
)

// Config is the root of the harness configuration.
type Config struct {
	App      AppConfig    `yaml:"app"`
	Mock     MockConfig   `yaml:"mock"`
	Policies PolicyConfig `yaml:"policies"`
	Load     LoadConfig   `yaml:"load"`
}

// AppConfig describes the target service.
type AppConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout"`
}

func (a AppConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// MockConfig describes where the target service expects to find its auth/action
// backends, which the harness will stand in for.
type MockConfig struct {
	BaseURL string `yaml:"base_url"`
}

// PolicyConfig declares the target's chosen answers to the contract's two
// implementation-defined behaviors.
type PolicyConfig struct {
	Relogin       ReloginPolicy `yaml:"relogin"`
	LogoutUnknown LogoutPolicy  `yaml:"logout_unknown"`
}

// LoadConfig configures the optional load stage.
type LoadConfig struct {
	Users             int `yaml:"users"`
	DurationSeconds   int `yaml:"duration"`
	ActionsPerSession int `yaml:"actions_per_session"`
}

func (l LoadConfig) Duration() time.Duration {
	return time.Duration(l.DurationSeconds) * time.Second
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		App: AppConfig{
			BaseURL:        "http://localhost:8080",
			APIKey:         "test_api_key_12345",
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Mock: MockConfig{
			BaseURL: "http://localhost:8111",
		},
		Policies: PolicyConfig{
			Relogin:       ReloginOverwrite,
			LogoutUnknown: LogoutIdempotent,
		},
		Load: LoadConfig{
			Users:             10,
			DurationSeconds:   30,
			ActionsPerSession: 3,
		},
	}
}

// Load reads the configuration file at path, if path is non-empty, and then applies
// environment variable overrides (APP_URL, MOCK_URL, API_KEY). Values missing from the
// file keep their defaults.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("malformed config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("APP_URL"); v != "" {
		c.App.BaseURL = v
	}
	if v := os.Getenv("MOCK_URL"); v != "" {
		c.Mock.BaseURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.App.APIKey = v
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks for values that would make the run meaningless.
func (c Config) Validate() error {
	if c.App.BaseURL == "" {
		return fmt.Errorf("app.base_url must not be empty")
	}
	if c.App.TimeoutSeconds <= 0 {
		return fmt.Errorf("app.timeout must be positive")
	}
	switch c.Policies.Relogin {
	case ReloginOverwrite, ReloginReject:
	default:
		return fmt.Errorf("policies.relogin must be %q or %q", ReloginOverwrite, ReloginReject)
	}
	switch c.Policies.LogoutUnknown {
	case LogoutIdempotent, LogoutStrict:
	default:
		return fmt.Errorf("policies.logout_unknown must be %q or %q", LogoutIdempotent, LogoutStrict)
	}
	return nil
}

// Package config loads the collector settings from flags, environment variables,
// an optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DEVSTATS"

var (
	ErrMissingToken = errors.New("GITHUB_TOKEN environment variable is not set")
	ErrInvalid      = errors.New("invalid configuration")
)

// Config holds every setting of the collect and analyze commands.
type Config struct {
	Token                 string        `mapstructure:"token"`
	Location              string        `mapstructure:"location"`
	MinFollowers          int           `mapstructure:"min_followers"`
	PerPage               int           `mapstructure:"per_page"`
	MaxRepos              int           `mapstructure:"max_repos"`
	Workers               int           `mapstructure:"workers"`
	RequestsPerMinute     int           `mapstructure:"requests_per_minute"`
	MaxSecondaryWait      time.Duration `mapstructure:"max_secondary_wait"`
	RateLimitFallbackWait time.Duration `mapstructure:"rate_limit_fallback_wait"`
	MaxRateLimitRetries   int           `mapstructure:"max_rate_limit_retries"`
	OutputDir             string        `mapstructure:"output_dir"`
	TopLanguages          int           `mapstructure:"top_languages"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Location:              "Berlin",
		MinFollowers:          200,
		PerPage:               100,
		MaxRepos:              500,
		Workers:               5,
		RequestsPerMinute:     80,
		MaxSecondaryWait:      time.Hour,
		RateLimitFallbackWait: time.Minute,
		OutputDir:             ".",
		TopLanguages:          5,
	}
}

// Load resolves the configuration. Precedence, highest first: changed flags,
// environment, config file, defaults. envFile is loaded into the process
// environment first; a missing envFile is not an error.
func Load(flags *pflag.FlagSet, configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", envPrefix+"_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !knownKeys[key] {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Location = strings.TrimSpace(cfg.Location)
	return cfg, nil
}

// Validate checks the numeric bounds of the configuration.
func (c *Config) Validate() error {
	var problems []string
	if c.Location == "" {
		problems = append(problems, "location must not be empty")
	}
	if c.MinFollowers < 0 {
		problems = append(problems, "min_followers must be >= 0")
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		problems = append(problems, "per_page must be between 1 and 100")
	}
	if c.MaxRepos < 0 {
		problems = append(problems, "max_repos must be >= 0")
	}
	if c.Workers < 1 {
		problems = append(problems, "workers must be >= 1")
	}
	if c.RequestsPerMinute < 0 {
		problems = append(problems, "requests_per_minute must be >= 0")
	}
	if c.MaxRateLimitRetries < 0 {
		problems = append(problems, "max_rate_limit_retries must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// RequireToken returns ErrMissingToken when no API token is configured.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("location", d.Location)
	v.SetDefault("min_followers", d.MinFollowers)
	v.SetDefault("per_page", d.PerPage)
	v.SetDefault("max_repos", d.MaxRepos)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("requests_per_minute", d.RequestsPerMinute)
	v.SetDefault("max_secondary_wait", d.MaxSecondaryWait)
	v.SetDefault("rate_limit_fallback_wait", d.RateLimitFallbackWait)
	v.SetDefault("max_rate_limit_retries", d.MaxRateLimitRetries)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("top_languages", d.TopLanguages)
}

// knownKeys are the settings a command-line flag may override.
var knownKeys = map[string]bool{
	"token":                    true,
	"location":                 true,
	"min_followers":            true,
	"per_page":                 true,
	"max_repos":                true,
	"workers":                  true,
	"requests_per_minute":      true,
	"max_secondary_wait":       true,
	"rate_limit_fallback_wait": true,
	"max_rate_limit_retries":   true,
	"output_dir":               true,
	"top_languages":            true,
}

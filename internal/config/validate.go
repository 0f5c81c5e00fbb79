package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scan.Threads < 1 {
		return fmt.Errorf("scan.threads must be >= 1, got %d", cfg.Scan.Threads)
	}
	if cfg.Scan.Threads > 1000 {
		return fmt.Errorf("scan.threads must be <= 1000, got %d", cfg.Scan.Threads)
	}
	if cfg.Scan.Recursion < 0 {
		return fmt.Errorf("scan.recursion must be >= 0, got %d", cfg.Scan.Recursion)
	}
	if cfg.Scan.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be > 0")
	}
	if cfg.Scan.ProxyURL != "" {
		if _, err := url.Parse(cfg.Scan.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", cfg.Scan.ProxyURL, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is a valid scan target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

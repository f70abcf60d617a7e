// Package config builds the immutable ProxyConfig record the core
// components assume has already been produced (spec.md §1/§3).
//
// Generalizes Ealireza-SuperProxy/config.go's YAML-loading-and-validating
// shape (gopkg.in/yaml.v3, explicit per-field validation with wrapped
// errors) from a list of (ipv6, port) proxy entries to the single
// ProxyConfig record spec.md §3 defines. CLI flags (parsed in cmd/ with
// spf13/pflag) override whatever the YAML file provides, matching the
// teacher's own "flags can override file" intent for -config/-t.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPListenAddr matches spec.md §6's CLI default.
	DefaultHTTPListenAddr = "127.0.0.1:7890"
	// DefaultIface matches spec.md §6's CLI default.
	DefaultIface = "en0"

	defaultMaxConcurrentConnections = 1024
	defaultHandshakeReadTimeoutMS   = 10_000
	defaultSessionTimeoutMS         = 300_000
)

// Config is the validated, immutable ProxyConfig record.
type Config struct {
	Iface                    string `yaml:"interface"`
	HTTPListenAddr           string `yaml:"http_listen_addr"`
	SOCKS5ListenAddr         string `yaml:"socks5_listen_addr"`
	SOCKS5User               string `yaml:"socks5_user"`
	SOCKS5Pass               string `yaml:"socks5_pass"`
	NoSOCKS5                 bool   `yaml:"-"`
	MaxConcurrentConnections int    `yaml:"max_concurrent_connections"`
	HandshakeReadTimeoutMS   int    `yaml:"handshake_read_timeout_ms"`
	SessionTimeoutMS         int    `yaml:"session_timeout_ms"`
}

// Default returns a Config populated with spec.md §6's documented CLI
// defaults.
func Default() Config {
	return Config{
		Iface:                    DefaultIface,
		HTTPListenAddr:           DefaultHTTPListenAddr,
		MaxConcurrentConnections: defaultMaxConcurrentConnections,
		HandshakeReadTimeoutMS:   defaultHandshakeReadTimeoutMS,
		SessionTimeoutMS:         defaultSessionTimeoutMS,
	}
}

// Load reads and parses a YAML configuration file, starting from
// Default() so fields the file omits keep their documented defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// HasSOCKS5Credentials reports whether username/password authentication
// is configured.
func (c Config) HasSOCKS5Credentials() bool {
	return c.SOCKS5User != "" || c.SOCKS5Pass != ""
}

// SOCKS5Enabled reports whether the SOCKS5 listener should be started:
// it is optional per spec.md §3 and only runs when an address was
// configured and --no-socks5 wasn't passed.
func (c Config) SOCKS5Enabled() bool {
	return !c.NoSOCKS5 && c.SOCKS5ListenAddr != ""
}

// Validate enforces the invariants spec.md §3 describes for ProxyConfig.
func (c Config) Validate() error {
	if c.Iface == "" {
		return fmt.Errorf("config: 'interface' is required (e.g. eth0)")
	}
	if c.HTTPListenAddr == "" {
		return fmt.Errorf("config: 'http_listen_addr' is required")
	}
	if c.MaxConcurrentConnections < 1 {
		return fmt.Errorf("config: 'max_concurrent_connections' must be positive")
	}
	if c.HandshakeReadTimeoutMS < 1 {
		return fmt.Errorf("config: 'handshake_read_timeout_ms' must be positive")
	}
	if c.SessionTimeoutMS < 1 {
		return fmt.Errorf("config: 'session_timeout_ms' must be positive")
	}
	return nil
}

package proxy

import (
	"fmt"

	"carrier-gateway/internal/core/config"
)

// Settings contains outbound proxy configuration for provider HTTP calls.
// Some deployments must route carrier traffic through a fixed egress IP that
// the provider has whitelisted.
type Settings struct {
	Enabled  bool
	Hostname string
	Port     int
	Username string
	Password string
}

// HasProxy returns true if proxy is enabled and configured.
func (p Settings) HasProxy() bool {
	return p.Enabled && p.Hostname != "" && p.Port > 0
}

// FullURL returns the full proxy URL with credentials when present.
func (p Settings) FullURL() string {
	if !p.HasProxy() {
		return ""
	}
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("http://%s:%s@%s:%d", p.Username, p.Password, p.Hostname, p.Port)
	}
	return fmt.Sprintf("http://%s:%d", p.Hostname, p.Port)
}

// FromConfig builds Settings from the loaded proxy configuration.
func FromConfig(cfg config.ProxyConfig) Settings {
	return Settings{
		Enabled:  cfg.Enabled,
		Hostname: cfg.Hostname,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}

package config

import (
	"errors"
	"fmt"

	"github.com/yndnr/chatmesh-go/pkg/crypto/seal"
)

// Known capability drivers.
var knownDrivers = map[string]bool{
	"sim": true,
}

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg.Server.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.Server.HTTP.TLSCertFile == "") != (cfg.Server.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}

	if !knownDrivers[cfg.Capability.Driver] {
		return fmt.Errorf("capability.driver %q is unknown", cfg.Capability.Driver)
	}
	if cfg.Capability.CodeWaitTimeout <= 0 {
		return errors.New("capability.code_wait_timeout must be positive")
	}

	if cfg.Credstore.Dir == "" {
		return errors.New("credstore.dir is required")
	}
	switch {
	case cfg.Credstore.Passphrase != "":
		if len(cfg.Credstore.Passphrase) < seal.MinPassphraseLength {
			return fmt.Errorf("credstore.passphrase must be at least %d characters", seal.MinPassphraseLength)
		}
	case cfg.Credstore.EncryptionKey != "":
		if len(cfg.Credstore.EncryptionKey) != seal.KeySize {
			return fmt.Errorf("credstore.encryption_key must be exactly %d bytes", seal.KeySize)
		}
	default:
		return errors.New("credstore requires either encryption_key or passphrase")
	}

	if len(cfg.Session.BearerSecret) < 32 {
		return errors.New("session.bearer_secret must be at least 32 bytes")
	}
	if cfg.Session.SweepInterval <= 0 {
		return errors.New("session.sweep_interval must be positive")
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			return errors.New("rate_limit.rps must be positive when rate limiting is enabled")
		}
		if cfg.RateLimit.Burst < 1 {
			return errors.New("rate_limit.burst must be at least 1")
		}
	}

	return nil
}

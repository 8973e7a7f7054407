package config

import "time"

// ServerConfig is the root configuration for chatmesh-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Capability CapabilitySection `koanf:"capability"`
	Credstore  CredstoreSection  `koanf:"credstore"`
	Session    SessionSection    `koanf:"session"`
	RateLimit  RateLimitSection  `koanf:"rate_limit"`
	Log        LogSection        `koanf:"log"`
	Metrics    MetricsSection    `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
}

// CapabilitySection configures the messaging connection driver.
type CapabilitySection struct {
	// Driver selects the connection implementation. "sim" is the
	// built-in simulator.
	Driver string `koanf:"driver"`

	// CodeWaitTimeout bounds how long a pairing request blocks waiting
	// for the connection to produce a code.
	CodeWaitTimeout time.Duration `koanf:"code_wait_timeout"`

	// StepDelay paces the simulator's lifecycle events.
	StepDelay time.Duration `koanf:"step_delay"`

	// AutoScan makes the simulator scan its own code, useful for
	// end-to-end smoke tests.
	AutoScan bool `koanf:"auto_scan"`
}

// CredstoreSection configures the on-disk identity store.
type CredstoreSection struct {
	// Dir is the store root directory.
	Dir string `koanf:"dir"`

	// EncryptionKey is the raw 32-byte sealing key. Exclusive with
	// Passphrase.
	EncryptionKey string `koanf:"encryption_key"`

	// Passphrase derives the sealing key with Argon2id.
	Passphrase string `koanf:"passphrase"`
}

// SessionSection configures session handling.
type SessionSection struct {
	// BearerSecret signs bearer credentials. Minimum 32 bytes.
	BearerSecret string `koanf:"bearer_secret"`

	// SweepInterval is how often expired exchange keys are reaped.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// RestoreOnStart restores remembered sessions at startup.
	RestoreOnStart bool `koanf:"restore_on_start"`
}

// RateLimitSection configures per-client request throttling.
type RateLimitSection struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the metrics endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}

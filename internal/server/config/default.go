package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:3000"
	DefaultReadTimeout     = 120 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultCapabilityDriver = "sim"
	DefaultCodeWaitTimeout  = 60 * time.Second

	DefaultCredstoreDir = "/var/lib/chatmesh-server/identities"

	DefaultSweepInterval = 5 * time.Minute

	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. Secrets have no
// defaults: bearer_secret and the credstore key material must come from
// the file or the environment.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Capability: CapabilitySection{
			Driver:          DefaultCapabilityDriver,
			CodeWaitTimeout: DefaultCodeWaitTimeout,
		},
		Credstore: CredstoreSection{
			Dir: DefaultCredstoreDir,
		},
		Session: SessionSection{
			SweepInterval:  DefaultSweepInterval,
			RestoreOnStart: true,
		},
		RateLimit: RateLimitSection{
			Enabled: true,
			RPS:     DefaultRateLimitRPS,
			Burst:   DefaultRateLimitBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}

package config

import "strings"

// Sanitize returns a copy of the config with secret fields masked, for
// logging the effective configuration at startup.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Credstore.EncryptionKey = maskSecret(sanitized.Credstore.EncryptionKey)
	sanitized.Credstore.Passphrase = maskSecret(sanitized.Credstore.Passphrase)
	sanitized.Session.BearerSecret = maskSecret(sanitized.Session.BearerSecret)
	return &sanitized
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

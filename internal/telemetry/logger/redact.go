package logger

import (
	"log/slog"
	"strings"
)

// Value prefixes that mark sensitive material regardless of key name.
var sensitiveValuePrefixes = []string{
	"cmxk_", // exchange key
	"cmbt_", // bearer credential
}

// Key fragments that suggest an attribute carries a secret.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"credential",
	"bearer",
	"session_key",
	"authorization",
}

// redactedValue replaces fully redacted values.
const redactedValue = "***REDACTED***"

// redactSensitive redacts an attribute if its value carries a known
// sensitive prefix or its key name suggests a secret. Prefixed values
// are partially masked so log lines stay correlatable; key-matched
// values are fully replaced.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		value := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(value, prefix) {
				return slog.String(a.Key, maskValue(value, prefix))
			}
		}

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if value != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			redacted[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	return a
}

// maskValue keeps the prefix and three characters from each end of the
// body, enough to correlate a value across log lines without exposing it.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a value before it is handed to anything outside the
// logger, such as an error detail.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

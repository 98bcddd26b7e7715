package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces sensitive values in log lines.
const RedactedValue = "[REDACTED]"

// plainKeys are emitted verbatim; every other key passed through MaskField
// is redacted.
var plainKeys = map[string]struct{}{
	"error":    {},
	"op":       {},
	"outcome":  {},
	"slot":     {},
	"tx":       {},
	"signer":   {},
	"owner":    {},
	"mint":     {},
	"amount":   {},
	"returned": {},
	"storage":  {},
}

// MaskField returns key as a string attribute, hiding value unless key is
// known to be safe. Empty values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	if _, ok := plainKeys[strings.ToLower(strings.TrimSpace(key))]; ok {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

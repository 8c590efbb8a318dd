package util //nolint:revive // package name util hosts shared formatting helpers used across CLI output

import "time"

// FormatTTL formats a Redis TTL for display. Redis reports -1 for keys
// without an expiry and -2 for missing keys; both come through the client
// as negative durations in seconds.
func FormatTTL(ttl time.Duration) string {
	switch {
	case ttl == -1*time.Second:
		return "no expiry"
	case ttl == -2*time.Second:
		return "key missing"
	case ttl < 0:
		return "expired"
	default:
		return ttl.Truncate(time.Second).String()
	}
}

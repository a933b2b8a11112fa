package common

import "errors"

var (
	// ErrConfig means the run cannot start: no credentials, invalid settings.
	ErrConfig = errors.New("config error")

	// ErrProtocol means the API answered but not with what the flow expects
	// (missing nonce, missing idToken, 401).
	ErrProtocol = errors.New("protocol error")

	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")

	// ErrInput marks a malformed seed or proxy line. Never fatal.
	ErrInput = errors.New("input error")
)

// Truncate shortens s to max runes and appends "..." when it was cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// ShortAddress renders 0x1234ab...cdef style identifiers for logs.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

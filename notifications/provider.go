package notifications

import (
	"context"
	"errors"
	"strings"
)

// SendResult reports the outcome for one destination of a multicast send,
// aligned by index with the tokens that were sent
type SendResult struct {
	Success   bool
	ErrorCode string
}

// MulticastResult is the per-batch outcome of a multicast send
type MulticastResult struct {
	SuccessCount int
	FailureCount int
	Responses    []SendResult
}

// Provider is the push gateway the dispatcher delivers through. SendMulticast
// returns an error only for transport-level failures; per-token delivery
// failures are reported in the result's Responses.
type Provider interface {
	SendMulticast(ctx context.Context, tokens []string, note Notification, data map[string]string, opts Options) (*MulticastResult, error)
	SendSingle(ctx context.Context, token string, note Notification, data map[string]string, opts Options) error
	SendToTopic(ctx context.Context, topic string, note Notification, data map[string]string, opts Options) error
}

// SendError is a per-destination delivery failure carrying the provider's
// error code
type SendError struct {
	Code string
}

func (e *SendError) Error() string {
	return "push send failed: " + e.Code
}

// ErrorCode returns the provider error code carried by err, or "" if err is
// not a per-destination delivery failure
func ErrorCode(err error) string {
	var se *SendError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Provider error codes meaning the token no longer corresponds to a live app
// installation. Both the legacy HTTP API spelling and the admin-SDK spelling
// are recognized; normalizeErrorCode folds them together.
var invalidTokenCodes = map[string]struct{}{
	"notregistered":                     {},
	"invalidregistration":               {},
	"missingregistration":               {},
	"registration-token-not-registered": {},
	"invalid-registration-token":        {},
	"invalid-argument":                  {},
}

// IsInvalidToken reports whether a provider error code means the destination
// token should be pruned. Any other code (rate limiting, server unavailable)
// counts as a plain failure and leaves the token alone.
func IsInvalidToken(code string) bool {
	_, ok := invalidTokenCodes[normalizeErrorCode(code)]
	return ok
}

// normalizeErrorCode maps the provider's several error shapes onto one
// lowercase code without the "messaging/" namespace prefix
func normalizeErrorCode(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	return strings.TrimPrefix(c, "messaging/")
}

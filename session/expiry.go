package session

import (
	"strings"
	"time"
)

// ExpiryParser extracts the expiry instant embedded in a bearer token
type ExpiryParser interface {
	Expiry(token string) (time.Time, error)
}

// ExpiryParserFunc adapts a function to ExpiryParser
type ExpiryParserFunc func(token string) (time.Time, error)

func (f ExpiryParserFunc) Expiry(token string) (time.Time, error) {
	return f(token)
}

// IsExpired reports whether token is unusable at now. A blank token, a token the parser
// rejects, and a token expiring at or before now are all expired.
func IsExpired(token string, parser ExpiryParser, now time.Time) bool {
	if strings.TrimSpace(token) == "" || parser == nil {
		return true
	}
	exp, err := parser.Expiry(token)
	if err != nil {
		return true
	}
	return !exp.After(now)
}

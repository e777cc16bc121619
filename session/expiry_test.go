package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/atelier-portal/session"
	"github.com/stretchr/testify/require"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	fixed := func(exp time.Time) session.ExpiryParser {
		return session.ExpiryParserFunc(func(string) (time.Time, error) { return exp, nil })
	}

	tests := []struct {
		name    string
		token   string
		parser  session.ExpiryParser
		expired bool
	}{
		{"future expiry", "t", fixed(now.Add(time.Second)), false},
		{"expiry equal to now", "t", fixed(now), true},
		{"past expiry", "t", fixed(now.Add(-time.Hour)), true},
		{"blank token", "  ", fixed(now.Add(time.Hour)), true},
		{"parser error", "t", session.ExpiryParserFunc(func(string) (time.Time, error) { return time.Time{}, errors.New("bad") }), true},
		{"no parser", "t", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expired, session.IsExpired(tt.token, tt.parser, now))
		})
	}
}

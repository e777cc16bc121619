package config

import "time"

type SecurityConfig interface {
	GetBrowserCookieMaxAge() time.Duration
	GetLoadingRefreshInterval() time.Duration
	GetSessionIdleTimeout() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetBrowserCookieMaxAge is how long a browser keeps its storage namespace
func (Security) GetBrowserCookieMaxAge() time.Duration {
	return GetEnvDuration("BROWSER_COOKIE_MAX_AGE", 30*24*time.Hour)
}

func (Security) GetLoadingRefreshInterval() time.Duration {
	return time.Second
}

// GetSessionIdleTimeout is how long an unused browser's store stays in memory. Its storage
// namespace outlives it, so the next visit restores the session.
func (Security) GetSessionIdleTimeout() time.Duration {
	return GetEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour)
}

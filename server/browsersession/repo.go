// Package browsersession keeps one session store per browser id
package browsersession

import (
	"context"

	"github.com/jrsteele09/atelier-portal/session"
)

// Factory builds the store of a browser the registry has not seen yet
type Factory func(browserID string) (*session.Store, error)

type Repo interface {
	// GetOrCreate returns the browser's store, creating it and starting its restore if needed
	GetOrCreate(ctx context.Context, browserID string) (*session.Store, error)
	Get(browserID string) (*session.Store, bool)
	Delete(browserID string)
}

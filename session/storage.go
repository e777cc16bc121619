package session

import "context"

// Storage is a string key/value namespace owned by a single browser
type Storage interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// StorageProvider hands out the storage namespace of a browser
type StorageProvider interface {
	For(namespace string) Storage
}

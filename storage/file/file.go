// Package file persists each browser namespace as a JSON object in its own file
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/jrsteele09/atelier-portal/session"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// errCorrupt marks a namespace file that is not a JSON object of strings
var errCorrupt = errors.New("corrupt namespace file")

// Provider stores namespaces under folder
type Provider struct {
	folder string
	mu     sync.Mutex
}

// New creates folder when it does not exist
func New(folder string) (*Provider, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[file.New] create folder %s: %w", folder, err)
	}
	return &Provider{folder: folder}, nil
}

func (p *Provider) For(namespace string) session.Storage {
	return &namespaceStorage{provider: p, path: p.path(namespace)}
}

func (p *Provider) path(namespace string) string {
	name := unsafeChars.ReplaceAllString(namespace, "_")
	if name == "" {
		name = "_"
	}
	return filepath.Join(p.folder, name+".json")
}

type namespaceStorage struct {
	provider *Provider
	path     string
}

func (n *namespaceStorage) Get(_ context.Context, key string) (string, bool, error) {
	n.provider.mu.Lock()
	defer n.provider.mu.Unlock()

	values, err := n.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (n *namespaceStorage) Set(_ context.Context, key, value string) error {
	n.provider.mu.Lock()
	defer n.provider.mu.Unlock()

	values, err := n.load()
	if errors.Is(err, errCorrupt) {
		values, err = map[string]string{}, nil
	}
	if err != nil {
		return err
	}
	values[key] = value
	return n.save(values)
}

func (n *namespaceStorage) Remove(_ context.Context, key string) error {
	n.provider.mu.Lock()
	defer n.provider.mu.Unlock()

	values, err := n.load()
	if errors.Is(err, errCorrupt) {
		return n.drop()
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		return n.drop()
	}
	return n.save(values)
}

// drop deletes the whole namespace file
func (n *namespaceStorage) drop() error {
	if err := os.Remove(n.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("[file.drop] %w", err)
	}
	return nil
}

func (n *namespaceStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(n.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[file.load] %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[file.load] %s: %w", n.path, errors.Join(errCorrupt, err))
	}
	return values, nil
}

// save writes through a temp file so a crash never leaves half a namespace behind
func (n *namespaceStorage) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[file.save] %w", err)
	}

	tmp := n.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("[file.save] %w", err)
	}
	if err := os.Rename(tmp, n.path); err != nil {
		return fmt.Errorf("[file.save] %w", err)
	}
	return nil
}

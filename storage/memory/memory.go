// Package memory keeps browser storage namespaces in process memory. Contents are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/jrsteele09/atelier-portal/session"
)

// Provider owns every namespace
type Provider struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string
}

func New() *Provider {
	return &Provider{
		namespaces: make(map[string]map[string]string),
	}
}

func (p *Provider) For(namespace string) session.Storage {
	return &namespaceStorage{provider: p, namespace: namespace}
}

// Len is the number of keys held for namespace
func (p *Provider) Len(namespace string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.namespaces[namespace])
}

type namespaceStorage struct {
	provider  *Provider
	namespace string
}

func (n *namespaceStorage) Get(_ context.Context, key string) (string, bool, error) {
	n.provider.mu.RLock()
	defer n.provider.mu.RUnlock()
	v, ok := n.provider.namespaces[n.namespace][key]
	return v, ok, nil
}

func (n *namespaceStorage) Set(_ context.Context, key, value string) error {
	n.provider.mu.Lock()
	defer n.provider.mu.Unlock()
	ns, ok := n.provider.namespaces[n.namespace]
	if !ok {
		ns = make(map[string]string)
		n.provider.namespaces[n.namespace] = ns
	}
	ns[key] = value
	return nil
}

func (n *namespaceStorage) Remove(_ context.Context, key string) error {
	n.provider.mu.Lock()
	defer n.provider.mu.Unlock()
	ns, ok := n.provider.namespaces[n.namespace]
	if !ok {
		return nil
	}
	delete(ns, key)
	if len(ns) == 0 {
		delete(n.provider.namespaces, n.namespace)
	}
	return nil
}

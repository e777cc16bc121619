package devbackend

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jrsteele09/atelier-portal/roles"
)

const DefaultAdminName = "Administrador"

// SeedAdmin creates an admin seller unless one with email already exists. With an empty
// password a random one is generated and returned; an existing account returns "".
func (b *Backend) SeedAdmin(email, password string) (generatedPassword string, err error) {
	if existing, ok := b.findUser(roles.RoleStaff, email); ok && existing.IsAdmin {
		return "", nil
	}

	generatedPassword = password
	if generatedPassword == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[devbackend SeedAdmin] failed to generate password: %w", err)
		}
		generatedPassword = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	_, err = b.AddUser(User{
		Role:    roles.RoleStaff,
		Name:    DefaultAdminName,
		Email:   email,
		IsAdmin: true,
	}, generatedPassword)
	if errors.Is(err, ErrDuplicateEmail) {
		return "", fmt.Errorf("[devbackend SeedAdmin] %s exists without admin rights: %w", email, err)
	}
	if err != nil {
		return "", fmt.Errorf("[devbackend SeedAdmin] %w", err)
	}
	return generatedPassword, nil
}

// SeedParts adds catalogue records to the pecas collection and returns their ids
func (b *Backend) SeedParts(parts ...map[string]any) []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		rec := copyRecord(p)
		if rec == nil {
			rec = map[string]any{}
		}
		b.nextID++
		rec["id"] = b.nextID
		b.collections[collectionParts][b.nextID] = rec
		ids = append(ids, b.nextID)
	}
	return ids
}

// DefaultCatalogue is the sample catalogue the standalone dev backend starts with
func DefaultCatalogue() []map[string]any {
	return []map[string]any{
		{"nome": "Vestido de festa", "descricao": "Sob medida, tecido à escolha", "preco": 850.0, "estoque": 3},
		{"nome": "Terno clássico", "descricao": "Duas peças, lã fria", "preco": 1200.0, "estoque": 2},
		{"nome": "Ajuste de barra", "descricao": "Calças e saias", "preco": 35.0, "estoque": 50},
	}
}

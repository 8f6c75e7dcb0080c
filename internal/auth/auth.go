// Package auth provides the guest identity layer: an opaque bearer
// token mapped to a stable user identity. Real deployments can swap in
// a provider backed by an external identity service; the games only
// ever see game.Identity values.
package auth

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"partygames/internal/game"
)

// Provider resolves a bearer token to an identity.
type Provider interface {
	Identify(token string) (game.Identity, bool)
}

// MemoryProvider issues guest identities and keeps the token mapping
// in memory.
type MemoryProvider struct {
	mu      sync.RWMutex
	byToken map[string]game.Identity
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{byToken: make(map[string]game.Identity)}
}

// Register creates a guest identity and returns the bearer token that
// resolves to it.
func (p *MemoryProvider) Register(name, avatarURL string) (string, game.Identity) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest"
	}
	identity := game.Identity{
		ID:        uuid.NewString(),
		Name:      name,
		AvatarURL: avatarURL,
	}
	token := uuid.NewString()

	p.mu.Lock()
	p.byToken[token] = identity
	p.mu.Unlock()

	return token, identity
}

func (p *MemoryProvider) Identify(token string) (game.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	identity, ok := p.byToken[token]
	return identity, ok
}

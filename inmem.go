package driveauth

import (
	"sync"
)

// InMemPermissionRepository keeps the permission tree in memory. Used
// in tests and for throwaway instances.
type InMemPermissionRepository struct {
	mu    sync.Locker
	perms map[string]ACL
}

func NewInMemPermissionRepository() *InMemPermissionRepository {
	return &InMemPermissionRepository{
		mu:    &sync.Mutex{},
		perms: make(map[string]ACL),
	}
}

func (r *InMemPermissionRepository) Load() (map[string]ACL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return copyPermissions(r.perms), nil
}

func (r *InMemPermissionRepository) Save(perms map[string]ACL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.perms = copyPermissions(perms)
	return nil
}

// InMemTokenRepository keeps the token table in memory.
type InMemTokenRepository struct {
	mu     sync.Locker
	tokens map[string]Token
}

func NewInMemTokenRepository() *InMemTokenRepository {
	return &InMemTokenRepository{
		mu:     &sync.Mutex{},
		tokens: make(map[string]Token),
	}
}

func (r *InMemTokenRepository) Load() (map[string]Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := make(map[string]Token, len(r.tokens))
	for token, record := range r.tokens {
		tokens[token] = record
	}
	return tokens, nil
}

func (r *InMemTokenRepository) Save(tokens map[string]Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = make(map[string]Token, len(tokens))
	for token, record := range tokens {
		r.tokens[token] = record
	}
	return nil
}

func copyPermissions(perms map[string]ACL) map[string]ACL {
	copied := make(map[string]ACL, len(perms))
	for path, acl := range perms {
		var node ACL
		node.Overlay(acl)
		copied[path] = node
	}
	return copied
}

// Package token holds the token store: the persistent mapping from
// opaque bearer strings to identity bindings and delegated grants.
package token

import (
	"fmt"
	"sync"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/errors"
)

// Service owns the token table. Tokens are immutable once issued;
// revocation is deletion. Mutations are serialized and persisted as a
// whole document, and a failed persist poisons further mutation the
// same way the permission store does.
type Service struct {
	mu       sync.Mutex
	repo     driveauth.TokenRepository
	tokens   map[string]driveauth.Token
	diverged bool
}

func NewService(repo driveauth.TokenRepository) (*Service, error) {
	tokens, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = make(map[string]driveauth.Token)
	}
	return &Service{repo: repo, tokens: tokens}, nil
}

// Resolve maps a bearer string to the identity it asserts. Absent and
// unknown tokens resolve to public; Resolve never fails.
func (s *Service) Resolve(token string) driveauth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.tokens[token]; ok {
		return record.Identity()
	}
	return driveauth.Public
}

// Lookup returns the stored record behind a bearer string.
func (s *Service) Lookup(token string) (driveauth.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	return record, ok
}

// IssueIdentity mints and persists a fresh identity token bound to
// email.
func (s *Service) IssueIdentity(email string) (string, error) {
	return s.issue(driveauth.Token{
		Type:  driveauth.TypeIdentity,
		Email: email,
	})
}

// IssueDelegated mints and persists a token limited to exactly the
// given path-scoped capabilities.
func (s *Service) IssueDelegated(email string, perms map[string]driveauth.Scope) (string, error) {
	return s.issue(driveauth.Token{
		Email: email,
		Perms: perms,
	})
}

func (s *Service) issue(record driveauth.Token) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.diverged {
		return "", errors.New("token store diverged from disk, refusing to mutate")
	}

	token := Generate()
	s.tokens[token] = record

	if err := s.repo.Save(s.tokens); err != nil {
		delete(s.tokens, token)
		s.diverged = true
		return "", errors.New("could not persist token", errors.WithCause(err))
	}
	return token, nil
}

// Revoke deletes a token. Revoking an unknown token is an error so
// administrative typos do not pass silently.
func (s *Service) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.diverged {
		return errors.New("token store diverged from disk, refusing to mutate")
	}

	if _, ok := s.tokens[token]; !ok {
		return errors.New(fmt.Sprintf("unknown token %q", token), errors.NotFound())
	}
	delete(s.tokens, token)

	if err := s.repo.Save(s.tokens); err != nil {
		s.diverged = true
		return errors.New("could not persist token store", errors.WithCause(err))
	}
	return nil
}

// List returns a copy of the token table, for administrative use.
func (s *Service) List() map[string]driveauth.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := make(map[string]driveauth.Token, len(s.tokens))
	for token, record := range s.tokens {
		tokens[token] = record
	}
	return tokens
}

// Scope computes the capabilities a token carries at p. Unknown tokens
// have no scope at all (ok is false). Identity tokens are not
// capability-limited at the token layer: they resolve to an
// unrestricted scope, leaving the gating entirely to the ACL. This is
// the one place that decision lives. Delegated tokens get the same
// root-to-leaf overlay as the permission tree, over their own perms
// map.
func (s *Service) Scope(token string, p driveauth.Path) (driveauth.Scope, bool) {
	s.mu.Lock()
	record, ok := s.tokens[token]
	s.mu.Unlock()

	if !ok {
		return driveauth.Scope{}, false
	}

	if record.IsIdentity() || record.Perms == nil {
		return driveauth.Scope{Read: true, Write: true, Manage: true, Own: true}, true
	}

	var scope driveauth.Scope
	for depth := 0; depth <= len(p); depth++ {
		if node, ok := record.Perms[p.Ancestor(depth).String()]; ok {
			scope.Merge(node)
		}
	}
	return scope, true
}

// Package acl holds the permission store: the persistent, path-keyed
// tree of access-control entries and its root-to-leaf overlay.
package acl

import (
	"fmt"
	"sync"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/errors"
)

// Service owns the permission tree. All mutations are serialized
// through its mutex and persisted through the repository as a whole
// document. After a failed persist, memory and disk may have diverged,
// so the service refuses further mutation; reads keep working.
type Service struct {
	mu       sync.Mutex
	repo     driveauth.PermissionRepository
	perms    map[string]driveauth.ACL
	diverged bool
}

// NewService loads the persisted tree. An empty store is seeded with
// the root default: public is a reader at "/".
func NewService(repo driveauth.PermissionRepository) (*Service, error) {
	perms, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = make(map[string]driveauth.ACL)
	}

	if _, ok := perms["/"]; !ok {
		var root driveauth.ACL
		root.Set(driveauth.Public, driveauth.LevelRead, true)
		perms["/"] = root
		if err := repo.Save(perms); err != nil {
			return nil, err
		}
	}

	return &Service{repo: repo, perms: perms}, nil
}

// Effective merges the entries found on the path from the root down to
// p, deeper cells overwriting shallower ones.
func (s *Service) Effective(p driveauth.Path) driveauth.ACL {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged driveauth.ACL
	for depth := 0; depth <= len(p); depth++ {
		if node, ok := s.perms[p.Ancestor(depth).String()]; ok {
			merged.Overlay(node)
		}
	}
	return merged
}

// Grant sets the identity/level cell at exactly p to true and
// persists. It does not check caller privileges; that is the business
// of the caller-facing API.
func (s *Service) Grant(ident driveauth.Identity, p driveauth.Path, level driveauth.Level) error {
	return s.set(ident, p, level, true)
}

// Revoke sets the cell at exactly p to false. The explicit false masks
// grants inherited from ancestors.
func (s *Service) Revoke(ident driveauth.Identity, p driveauth.Path, level driveauth.Level) error {
	return s.set(ident, p, level, false)
}

func (s *Service) set(ident driveauth.Identity, p driveauth.Path, level driveauth.Level, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.diverged {
		return errors.New("permission store diverged from disk, refusing to mutate")
	}

	node := s.perms[p.String()]
	node.Set(ident, level, granted)
	s.perms[p.String()] = node

	if err := s.repo.Save(s.perms); err != nil {
		s.diverged = true
		return errors.New(fmt.Sprintf("could not persist permissions for %q", p.String()), errors.WithCause(err))
	}
	return nil
}

// Tree returns a copy of the raw stored entries, for inspection.
func (s *Service) Tree() map[string]driveauth.ACL {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree := make(map[string]driveauth.ACL, len(s.perms))
	for path, node := range s.perms {
		var copied driveauth.ACL
		copied.Overlay(node)
		tree[path] = copied
	}
	return tree
}

// Package auth is the authorization core: it resolves whether a
// bearer token may act on a path, guards permission grants, and runs
// the email-challenge flows that mint new tokens.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/acl"
	"github.com/driveauth/driveauth/errors"
	"github.com/driveauth/driveauth/log"
	"github.com/driveauth/driveauth/token"
)

// Mailer sends the verification emails. Absence of a real SMTP setup
// is expected to degrade the flows, not crash them, so a logging
// implementation is a valid Mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// DefaultVerificationTTL is how long an email challenge stays
// resolvable.
const DefaultVerificationTTL = 60 * time.Second

type Service struct {
	acls    *acl.Service
	tokens  *token.Service
	pending *registry
	mailer  Mailer
	host    string
	ttl     time.Duration
	logger  log.Logger
}

type Option func(*Service)

// WithVerificationTTL overrides the challenge expiry, mainly for
// tests.
func WithVerificationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService builds the authorization service. host is the public URL
// embedded in verification links.
func NewService(acls *acl.Service, tokens *token.Service, mailer Mailer, host string, logger log.Logger, opts ...Option) *Service {
	s := &Service{
		acls:    acls,
		tokens:  tokens,
		pending: newRegistry(),
		mailer:  mailer,
		host:    host,
		ttl:     DefaultVerificationTTL,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Can is the permission resolver. Two factors must both hold: the
// identity the token resolves to must be granted the level in the
// effective ACL, and the token itself must carry a scope covering the
// level. Public reads and writes bypass the token factor entirely when
// the effective ACL marks public at that level: public access needs no
// token at all.
func (s *Service) Can(bearer string, path string, level driveauth.Level) bool {
	p := driveauth.ParsePath(path)
	eff := s.acls.Effective(p)

	if level == driveauth.LevelRead && eff.Readers[driveauth.Public] {
		return true
	}
	if level == driveauth.LevelWrite && eff.Writers[driveauth.Public] {
		return true
	}

	ident := s.tokens.Resolve(bearer)
	if !eff.Granted(ident, level) {
		return false
	}

	scope, ok := s.tokens.Scope(bearer, p)
	if !ok {
		return false
	}
	return scope.Allows(level)
}

func (s *Service) CanRead(bearer, path string) bool {
	return s.Can(bearer, path, driveauth.LevelRead)
}

func (s *Service) CanWrite(bearer, path string) bool {
	return s.Can(bearer, path, driveauth.LevelWrite)
}

func (s *Service) CanManage(bearer, path string) bool {
	return s.Can(bearer, path, driveauth.LevelManage)
}

func (s *Service) CanOwn(bearer, path string) bool {
	return s.Can(bearer, path, driveauth.LevelOwn)
}

// Perms is a convenience view with the token bound.
type Perms struct {
	service *Service
	bearer  string
}

// GetPerms binds a token so the file-serving layer can gate repeated
// operations without carrying the token around.
func (s *Service) GetPerms(bearer string) Perms {
	return Perms{service: s, bearer: bearer}
}

func (p Perms) CanRead(path string) bool  { return p.service.CanRead(p.bearer, path) }
func (p Perms) CanWrite(path string) bool { return p.service.CanWrite(p.bearer, path) }

// Grant API. Granting or revoking at a level requires the caller to
// already hold the next level up for that path: reader and writer
// changes need manage, manager and owner changes need own. A caller
// that does not is refused with a Forbidden error, never silently.

func (s *Service) AddReader(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelRead, true)
}

func (s *Service) RemoveReader(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelRead, false)
}

func (s *Service) AddWriter(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelWrite, true)
}

func (s *Service) RemoveWriter(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelWrite, false)
}

func (s *Service) AddManager(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelManage, true)
}

func (s *Service) RemoveManager(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelManage, false)
}

func (s *Service) AddOwner(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelOwn, true)
}

func (s *Service) RemoveOwner(bearer, path string, ident driveauth.Identity) error {
	return s.setGrant(bearer, path, ident, driveauth.LevelOwn, false)
}

// SetGrant writes a single identity/level cell at path after checking
// the caller's privilege.
func (s *Service) SetGrant(bearer, path string, ident driveauth.Identity, level driveauth.Level, granted bool) error {
	return s.setGrant(bearer, path, ident, level, granted)
}

func (s *Service) setGrant(bearer, path string, ident driveauth.Identity, level driveauth.Level, granted bool) error {
	required := driveauth.LevelManage
	if level >= driveauth.LevelManage {
		required = driveauth.LevelOwn
	}

	if !s.Can(bearer, path, required) {
		return errors.New(
			fmt.Sprintf("%s permission on %q is required to change %s grants", required, path, level),
			errors.Forbidden(),
		)
	}

	p := driveauth.ParsePath(path)
	if granted {
		return s.acls.Grant(ident, p, level)
	}
	return s.acls.Revoke(ident, p, level)
}

// Authenticate starts an email challenge for email and blocks until
// the link is clicked or the challenge expires. On success it mints
// and persists a fresh identity token bound to email.
func (s *Service) Authenticate(ctx context.Context, email string) (string, error) {
	if err := s.challenge(ctx, email, "Authentication request"); err != nil {
		return "", err
	}
	return s.tokens.IssueIdentity(email)
}

// Request is a delegation request: the email of the requester (used
// only when no token is presented) and the exact path-scoped
// capabilities the new token should carry.
type Request struct {
	Email string                     `json:"email"`
	Perms map[string]driveauth.Scope `json:"perms"`
}

// Authorize mints a delegated token scoped to exactly req.Perms. When
// no token is presented, the requester first proves their identity
// through the same email challenge as Authenticate. Every requested
// capability must already be held by the established identity through
// the standard resolver; one failed check refuses the whole request,
// so a delegated token can never grant more than its issuer held at
// mint time.
func (s *Service) Authorize(ctx context.Context, bearer string, req Request) (string, error) {
	if bearer == "" {
		if err := s.challenge(ctx, req.Email, "Authorization request"); err != nil {
			return "", err
		}
		issued, err := s.tokens.IssueIdentity(req.Email)
		if err != nil {
			return "", err
		}
		bearer = issued
	}

	ident := s.tokens.Resolve(bearer)
	if ident == driveauth.Public {
		return "", errors.New("unknown token", errors.Unauthorized())
	}

	for path, scope := range req.Perms {
		for _, level := range []driveauth.Level{driveauth.LevelRead, driveauth.LevelWrite, driveauth.LevelManage, driveauth.LevelOwn} {
			if !requested(scope, level) {
				continue
			}
			if !s.Can(bearer, path, level) {
				return "", errors.New(
					fmt.Sprintf("requested %s on %q exceeds what the requester holds", level, path),
					errors.Forbidden(),
				)
			}
		}
	}

	return s.tokens.IssueDelegated(string(ident), req.Perms)
}

func requested(scope driveauth.Scope, level driveauth.Level) bool {
	switch level {
	case driveauth.LevelRead:
		return scope.Read
	case driveauth.LevelWrite:
		return scope.Write
	case driveauth.LevelManage:
		return scope.Manage
	case driveauth.LevelOwn:
		return scope.Own
	}
	return false
}

// Verify resolves the pending challenge under key. It reports false
// for unknown, already-resolved and expired keys.
func (s *Service) Verify(key string) bool {
	return s.pending.resolve(key)
}

// challenge emails a verification link and waits for the link to be
// clicked. The pending entry is registered before the email goes out
// so a fast click cannot race the registration.
func (s *Service) challenge(ctx context.Context, email, subject string) error {
	if email == "" {
		return errors.New("an email address is required", errors.BadRequest())
	}

	key := token.Generate()
	verifyURL := fmt.Sprintf("%s/auth/verify?key=%s", s.host, key)
	body := fmt.Sprintf(
		"This is an email verification request from %s. Please click the following link to complete the verification:\n\n%s",
		s.host, verifyURL,
	)

	done := s.pending.register(key)

	if err := s.mailer.Send(email, subject, body); err != nil {
		s.pending.expire(key)
		return errors.New("could not send verification email", errors.WithCause(err))
	}
	s.logger.Printf("verification challenge sent to %s", email)

	select {
	case <-done:
		return nil
	case <-time.After(s.ttl):
		s.pending.expire(key)
		return errors.New("verification expired, restart the flow", errors.Timeout())
	case <-ctx.Done():
		s.pending.expire(key)
		return ctx.Err()
	}
}

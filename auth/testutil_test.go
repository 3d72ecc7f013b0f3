package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/acl"
	"github.com/driveauth/driveauth/log"
	"github.com/driveauth/driveauth/token"
)

// mailSpy records sent mails and signals each one on a channel so
// tests can wait for the challenge email without sleeping.
type mailSpy struct {
	mu    sync.Mutex
	mails []string
	sent  chan string
}

func newMailSpy() *mailSpy {
	return &mailSpy{sent: make(chan string, 8)}
}

func (m *mailSpy) Send(to, subject, body string) error {
	m.mu.Lock()
	m.mails = append(m.mails, body)
	m.mu.Unlock()

	m.sent <- body
	return nil
}

// waitForKey blocks until a challenge email is captured and returns
// the verification key embedded in its link.
func (m *mailSpy) waitForKey(t *testing.T) string {
	t.Helper()

	select {
	case body := <-m.sent:
		parts := strings.Split(body, "key=")
		require.Len(t, parts, 2, "mail body should embed exactly one key")
		return strings.TrimSpace(parts[1])
	case <-time.After(2 * time.Second):
		t.Fatal("no challenge email sent")
		return ""
	}
}

type fixture struct {
	acls    *acl.Service
	tokens  *token.Service
	mails   *mailSpy
	service *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	acls, err := acl.NewService(driveauth.NewInMemPermissionRepository())
	require.NoError(t, err)

	tokens, err := token.NewService(driveauth.NewInMemTokenRepository())
	require.NoError(t, err)

	mails := newMailSpy()
	service := NewService(acls, tokens, mails, "http://drive.example.com", log.New("dev"), opts...)

	return &fixture{
		acls:    acls,
		tokens:  tokens,
		mails:   mails,
		service: service,
	}
}

// owner seeds an owner of the whole tree and returns their identity
// token.
func (f *fixture) owner(t *testing.T, email string) string {
	t.Helper()

	require.NoError(t, f.acls.Grant(driveauth.Identity(email), driveauth.ParsePath("/"), driveauth.LevelOwn))
	bearer, err := f.tokens.IssueIdentity(email)
	require.NoError(t, err)
	return bearer
}

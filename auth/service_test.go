package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/errors"
)

func TestService_PublicDefaults(t *testing.T) {
	f := newFixture(t)

	// Fresh store: public is a reader at the root, so anything is
	// readable by anyone, token or not.
	assert.True(t, f.service.CanRead("", "/anything"))
	assert.True(t, f.service.CanRead("random-token", "/deeply/nested/path"))

	// But nothing else is open.
	assert.False(t, f.service.CanWrite("", "/anything"))
	assert.False(t, f.service.CanManage("random-token", "/"))
	assert.False(t, f.service.CanOwn("random-token", "/"))
}

func TestService_GrantPreconditions(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	// A non-manager cannot grant, and the failure is loud.
	err := f.service.AddReader("random-token", "/private", "alice@example.com")
	if assert.Error(t, err, "grants from a non-manager must fail") {
		errors.AssertCode(t, err, 403)
	}

	// Reader/writer grants need manage; manager/owner grants need own.
	manager, err := f.tokens.IssueIdentity("manager@example.com")
	require.NoError(t, err)
	require.NoError(t, f.service.AddManager(ownerTok, "/private", "manager@example.com"))

	require.NoError(t, f.service.AddReader(manager, "/private", "alice@example.com"))
	require.NoError(t, f.service.AddWriter(manager, "/private", "alice@example.com"))

	err = f.service.AddOwner(manager, "/private", "manager@example.com")
	if assert.Error(t, err, "a manager must not be able to grant ownership") {
		errors.AssertCode(t, err, 403)
	}
	err = f.service.AddManager(manager, "/private", "accomplice@example.com")
	if assert.Error(t, err, "a manager must not be able to mint more managers") {
		errors.AssertCode(t, err, 403)
	}

	require.NoError(t, f.service.AddOwner(ownerTok, "/private", "heir@example.com"))

	// Revocations are gated the same way.
	err = f.service.RemoveReader("random-token", "/private", "alice@example.com")
	if assert.Error(t, err) {
		errors.AssertCode(t, err, 403)
	}
	require.NoError(t, f.service.RemoveReader(manager, "/private", "alice@example.com"))
}

func TestService_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	// Close /private to the public, then let alice in.
	require.NoError(t, f.service.RemoveReader(ownerTok, "/private", driveauth.Public))
	require.NoError(t, f.service.AddReader(ownerTok, "/private", "alice@example.com"))

	aliceTok, err := f.tokens.IssueIdentity("alice@example.com")
	require.NoError(t, err)

	assert.True(t, f.service.CanRead(aliceTok, "/private"))
	assert.True(t, f.service.CanRead(aliceTok, "/private/notes.txt"))
	assert.False(t, f.service.CanRead("random-token", "/private"))
	assert.False(t, f.service.CanRead("", "/private"))

	// The rest of the tree is still public.
	assert.True(t, f.service.CanRead("random-token", "/elsewhere"))
}

func TestService_HierarchyMonotonicity(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	require.NoError(t, f.service.AddOwner(ownerTok, "/team", "bob@example.com"))
	bobTok, err := f.tokens.IssueIdentity("bob@example.com")
	require.NoError(t, err)

	for _, path := range []string{"/team", "/team/sub", "/team/sub/deep/file.txt"} {
		assert.True(t, f.service.CanRead(bobTok, path), path)
		assert.True(t, f.service.CanWrite(bobTok, path), path)
		assert.True(t, f.service.CanManage(bobTok, path), path)
		assert.True(t, f.service.CanOwn(bobTok, path), path)
	}

	// A deeper override wins over the inherited grant.
	require.NoError(t, f.service.RemoveOwner(ownerTok, "/team/frozen", "bob@example.com"))
	assert.False(t, f.service.CanOwn(bobTok, "/team/frozen"))
	assert.True(t, f.service.CanOwn(bobTok, "/team/sub"))
}

func TestService_TwoFactorAnd(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	// alice holds writer rights on /a through the ACL, and /a is not
	// public.
	require.NoError(t, f.service.RemoveReader(ownerTok, "/a", driveauth.Public))
	require.NoError(t, f.service.AddWriter(ownerTok, "/a", "alice@example.com"))

	// A delegated token scoped to read-only at /a may read but not
	// write, even though the bound identity could write with a full
	// token.
	readOnly, err := f.tokens.IssueDelegated("alice@example.com", map[string]driveauth.Scope{
		"/a": {Read: true},
	})
	require.NoError(t, err)

	assert.True(t, f.service.CanRead(readOnly, "/a"))
	assert.False(t, f.service.CanWrite(readOnly, "/a"), "token scope must gate even when the ACL allows")

	// And the other way around: a broad token scope grants nothing the
	// identity does not hold in the ACL.
	broad, err := f.tokens.IssueDelegated("alice@example.com", map[string]driveauth.Scope{
		"/a": {Own: true},
	})
	require.NoError(t, err)
	assert.False(t, f.service.CanOwn(broad, "/a"))
	assert.False(t, f.service.CanManage(broad, "/a"))
	assert.True(t, f.service.CanWrite(broad, "/a"), "own in the token scope covers write, which the ACL grants")
}

func TestService_Authenticate(t *testing.T) {
	f := newFixture(t)

	type result struct {
		token string
		err   error
	}
	results := make(chan result, 1)
	go func() {
		token, err := f.service.Authenticate(context.Background(), "alice@example.com")
		results <- result{token, err}
	}()

	key := f.mails.waitForKey(t)
	assert.True(t, f.service.Verify(key))

	res := <-results
	require.NoError(t, res.err)
	require.NotEmpty(t, res.token)
	assert.Equal(t, driveauth.Identity("alice@example.com"), f.tokens.Resolve(res.token))

	// A key resolves exactly once.
	assert.False(t, f.service.Verify(key))
}

func TestService_AuthenticateTimeout(t *testing.T) {
	f := newFixture(t, WithVerificationTTL(30*time.Millisecond))

	_, err := f.service.Authenticate(context.Background(), "alice@example.com")
	require.Error(t, err)
	errors.AssertCode(t, err, 408)

	// The challenge expired with the flow: the late click fails.
	key := f.mails.waitForKey(t)
	assert.False(t, f.service.Verify(key))
}

func TestService_AuthenticateCancelled(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 1)
	go func() {
		_, err := f.service.Authenticate(ctx, "alice@example.com")
		results <- err
	}()

	key := f.mails.waitForKey(t)
	cancel()

	require.Error(t, <-results)
	assert.False(t, f.service.Verify(key), "cancellation discards the challenge")
}

func TestService_AuthorizeWithToken(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	require.NoError(t, f.service.RemoveReader(ownerTok, "/docs", driveauth.Public))
	require.NoError(t, f.service.AddWriter(ownerTok, "/docs", "alice@example.com"))
	aliceTok, err := f.tokens.IssueIdentity("alice@example.com")
	require.NoError(t, err)

	// Delegating what alice holds works and mints a new token.
	delegated, err := f.service.Authorize(context.Background(), aliceTok, Request{
		Perms: map[string]driveauth.Scope{"/docs": {Read: true, Write: true}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, delegated)
	assert.NotEqual(t, aliceTok, delegated)

	assert.True(t, f.service.CanWrite(delegated, "/docs"))
	assert.False(t, f.service.CanManage(delegated, "/docs"))

	// Non-escalation: requesting a level alice lacks refuses the whole
	// request.
	_, err = f.service.Authorize(context.Background(), aliceTok, Request{
		Perms: map[string]driveauth.Scope{
			"/docs":  {Read: true},
			"/other": {Manage: true},
		},
	})
	if assert.Error(t, err) {
		errors.AssertCode(t, err, 403)
	}

	// A delegated token cannot be used to delegate beyond its own
	// scope either.
	_, err = f.service.Authorize(context.Background(), delegated, Request{
		Perms: map[string]driveauth.Scope{"/docs": {Manage: true}},
	})
	if assert.Error(t, err) {
		errors.AssertCode(t, err, 403)
	}

	// An unknown token cannot delegate at all.
	_, err = f.service.Authorize(context.Background(), "random-token", Request{
		Perms: map[string]driveauth.Scope{"/docs": {Read: true}},
	})
	if assert.Error(t, err) {
		errors.AssertCode(t, err, 401)
	}
}

func TestService_AuthorizeWithoutToken(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")
	require.NoError(t, f.service.AddWriter(ownerTok, "/shared", "carol@example.com"))

	type result struct {
		token string
		err   error
	}
	results := make(chan result, 1)
	go func() {
		token, err := f.service.Authorize(context.Background(), "", Request{
			Email: "carol@example.com",
			Perms: map[string]driveauth.Scope{"/shared": {Write: true}},
		})
		results <- result{token, err}
	}()

	key := f.mails.waitForKey(t)
	require.True(t, f.service.Verify(key))

	res := <-results
	require.NoError(t, res.err)
	require.NotEmpty(t, res.token)

	assert.True(t, f.service.CanWrite(res.token, "/shared"))
	assert.True(t, f.service.CanWrite(res.token, "/shared/doc.txt"))
	assert.False(t, f.service.CanWrite(res.token, "/"))

	record, ok := f.tokens.Lookup(res.token)
	require.True(t, ok)
	assert.False(t, record.IsIdentity(), "the minted token is delegated, not a full identity token")
}

func TestService_GetPerms(t *testing.T) {
	f := newFixture(t)
	ownerTok := f.owner(t, "owner@example.com")

	perms := f.service.GetPerms(ownerTok)
	assert.True(t, perms.CanRead("/x"))
	assert.True(t, perms.CanWrite("/x"))

	public := f.service.GetPerms("")
	assert.True(t, public.CanRead("/x"))
	assert.False(t, public.CanWrite("/x"))
}

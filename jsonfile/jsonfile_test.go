package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driveauth/driveauth"
)

func TestPermissionRepository_MissingFile(t *testing.T) {
	repo := NewPermissionRepository(filepath.Join(t.TempDir(), "perms.json"))

	perms, err := repo.Load()
	if err != nil {
		t.Fatal("missing file should load as empty store:", err)
	}
	if len(perms) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(perms))
	}
}

func TestPermissionRepository_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perms.json")
	repo := NewPermissionRepository(path)

	perms := map[string]driveauth.ACL{
		"/": {Readers: map[driveauth.Identity]bool{driveauth.Public: true}},
		"/private": {
			Readers: map[driveauth.Identity]bool{driveauth.Public: false, "alice@example.com": true},
			Owners:  map[driveauth.Identity]bool{"owner@example.com": true},
		},
	}
	if err := repo.Save(perms); err != nil {
		t.Fatal("error saving:", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal("error loading:", err)
	}

	if !loaded["/"].Readers[driveauth.Public] {
		t.Error("root public reader lost in roundtrip")
	}
	if loaded["/private"].Readers[driveauth.Public] {
		t.Error("explicit false cell should survive the roundtrip as false")
	}
	if granted, ok := loaded["/private"].Readers[driveauth.Public]; !ok || granted {
		t.Error("explicit false cell should still be present after the roundtrip")
	}
	if !loaded["/private"].Owners["owner@example.com"] {
		t.Error("owner grant lost in roundtrip")
	}
}

func TestPermissionRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perms.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal("could not write fixture:", err)
	}

	repo := NewPermissionRepository(path)
	if _, err := repo.Load(); err == nil {
		t.Fatal("corrupt store should not load")
	}
}

func TestTokenRepository_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	repo := NewTokenRepository(path)

	tokens, err := repo.Load()
	if err != nil {
		t.Fatal("missing file should load as empty store:", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(tokens))
	}

	tokens = map[string]driveauth.Token{
		"tok-identity": {Type: driveauth.TypeIdentity, Email: "alice@example.com"},
		"tok-delegated": {
			Email: "alice@example.com",
			Perms: map[string]driveauth.Scope{"/shared": {Read: true}},
		},
	}
	if err := repo.Save(tokens); err != nil {
		t.Fatal("error saving:", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatal("error loading:", err)
	}

	if !loaded["tok-identity"].IsIdentity() {
		t.Error("identity token lost its type")
	}
	if !loaded["tok-delegated"].Perms["/shared"].Read {
		t.Error("delegated scope lost in roundtrip")
	}
}

func TestTokenRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("]["), 0600); err != nil {
		t.Fatal("could not write fixture:", err)
	}

	repo := NewTokenRepository(path)
	if _, err := repo.Load(); err == nil {
		t.Fatal("corrupt store should not load")
	}
}

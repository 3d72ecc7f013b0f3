// Package jsonfile persists the permission tree and the token table as
// single JSON documents on the local filesystem, rewritten whole on
// every mutation. A missing file is an empty store; a file that exists
// but cannot be parsed is an error, so the service refuses to start on
// a corrupt store instead of silently resetting it.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driveauth/driveauth"
)

// PermissionRepository stores the permission tree in a JSON file keyed
// by path string.
type PermissionRepository struct {
	path string
}

func NewPermissionRepository(path string) *PermissionRepository {
	return &PermissionRepository{path: path}
}

func (r *PermissionRepository) Load() (map[string]driveauth.ACL, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return make(map[string]driveauth.ACL), nil
	} else if err != nil {
		return nil, err
	}

	var perms map[string]driveauth.ACL
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, fmt.Errorf("corrupt permission store %s: %v", r.path, err)
	}
	return perms, nil
}

func (r *PermissionRepository) Save(perms map[string]driveauth.ACL) error {
	data, err := json.MarshalIndent(perms, "", "    ")
	if err != nil {
		return err
	}
	return writeAtomic(r.path, data)
}

// writeAtomic writes the document to a temp file in the same directory
// and renames it over the target, so readers never observe a partial
// write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

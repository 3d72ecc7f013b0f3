package bolt

import (
	"encoding/json"

	"github.com/boltdb/bolt"

	"github.com/driveauth/driveauth"
)

// PermissionRepository stores the permission tree one path per key.
type PermissionRepository struct {
	Driver *Driver
}

func (r *PermissionRepository) Load() (map[string]driveauth.ACL, error) {
	perms := make(map[string]driveauth.ACL)

	err := r.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(permissionBucket)

		c := bucket.Cursor()
		for path, data := c.First(); path != nil; path, data = c.Next() {
			var node driveauth.ACL
			if err := json.Unmarshal(data, &node); err != nil {
				return err
			}
			perms[string(path)] = node
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return perms, nil
}

// Save replaces the stored tree with perms. The bucket is recreated
// and refilled inside one transaction, keeping the all-or-nothing
// rewrite semantics of the file store.
func (r *PermissionRepository) Save(perms map[string]driveauth.ACL) error {
	return r.Driver.store.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(permissionBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(permissionBucket)
		if err != nil {
			return err
		}

		for path, node := range perms {
			data, err := json.Marshal(node)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(path), data); err != nil {
				return err
			}
		}
		return nil
	})
}

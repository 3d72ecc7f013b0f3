package bolt

import (
	"encoding/json"

	"github.com/boltdb/bolt"

	"github.com/driveauth/driveauth"
)

// TokenRepository stores the token table one token per key.
type TokenRepository struct {
	Driver *Driver
}

func (r *TokenRepository) Load() (map[string]driveauth.Token, error) {
	tokens := make(map[string]driveauth.Token)

	err := r.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tokenBucket)

		c := bucket.Cursor()
		for token, data := c.First(); token != nil; token, data = c.Next() {
			var record driveauth.Token
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			tokens[string(token)] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *TokenRepository) Save(tokens map[string]driveauth.Token) error {
	return r.Driver.store.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(tokenBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(tokenBucket)
		if err != nil {
			return err
		}

		for token, record := range tokens {
			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(token), data); err != nil {
				return err
			}
		}
		return nil
	})
}

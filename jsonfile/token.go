package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/driveauth/driveauth"
)

// TokenRepository stores the token table in a JSON file keyed by the
// opaque token string.
type TokenRepository struct {
	path string
}

func NewTokenRepository(path string) *TokenRepository {
	return &TokenRepository{path: path}
}

func (r *TokenRepository) Load() (map[string]driveauth.Token, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return make(map[string]driveauth.Token), nil
	} else if err != nil {
		return nil, err
	}

	var tokens map[string]driveauth.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("corrupt token store %s: %v", r.path, err)
	}
	return tokens, nil
}

func (r *TokenRepository) Save(tokens map[string]driveauth.Token) error {
	data, err := json.MarshalIndent(tokens, "", "    ")
	if err != nil {
		return err
	}
	return writeAtomic(r.path, data)
}

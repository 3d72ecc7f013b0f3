package driveauth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const tokenName = "access_token"

// maxTokenBody bounds how much of a request body is buffered when
// looking for a token in it.
const maxTokenBody = 1 << 20

// RequestToken extracts the bearer token from an HTTP request. First
// match wins: cookie, query parameter, header, then the
// params.access_token field of a JSON-shaped text/plain body. The body
// is restored after reading so handlers can still consume it.
func RequestToken(r *http.Request) string {
	if cookie, err := r.Cookie(tokenName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if token := r.URL.Query().Get(tokenName); token != "" {
		return token
	}

	if token := r.Header.Get(tokenName); token != "" {
		return token
	}

	if r.Method == http.MethodPost &&
		strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") &&
		r.Body != nil {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(data))
		if err != nil {
			return ""
		}

		var body struct {
			Params struct {
				AccessToken string `json:"access_token"`
			} `json:"params"`
		}
		if err := json.Unmarshal(data, &body); err == nil {
			return body.Params.AccessToken
		}
	}

	return ""
}

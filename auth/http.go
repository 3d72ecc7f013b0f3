package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/errors"
)

// HTTPServer defines the interface to register the http handlers.
type HTTPServer interface {
	RegisterHandler(path, method string, f http.Handler)
}

// RegisterHTTPRoutes mounts the request/response authorization API:
// delegation, grant/revoke, and permission checks. The bearer token is
// taken from the request with the standard extraction precedence, not
// from a dedicated auth header, because public callers may have no
// token at all.
func RegisterHTTPRoutes(srv HTTPServer, service *Service) {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
	}

	ep := NewEndpoint(service)

	authorizeHandler := kithttp.NewServer(
		ep.Authorize,
		decodeAuthorizeRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)
	srv.RegisterHandler("/auth/authorize", "POST", authorizeHandler)

	grantHandler := kithttp.NewServer(
		ep.Grant,
		decodeGrantRequest(true),
		kithttp.EncodeJSONResponse,
		opts...,
	)
	srv.RegisterHandler("/auth/grants", "POST", grantHandler)

	revokeHandler := kithttp.NewServer(
		ep.Grant,
		decodeGrantRequest(false),
		kithttp.EncodeJSONResponse,
		opts...,
	)
	srv.RegisterHandler("/auth/grants/revoke", "POST", revokeHandler)

	checkHandler := kithttp.NewServer(
		ep.Check,
		decodeCheckRequest,
		kithttp.EncodeJSONResponse,
		opts...,
	)
	srv.RegisterHandler("/auth/check", "GET", checkHandler)
}

func decodeAuthorizeRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	bearer := driveauth.RequestToken(r)
	defer r.Body.Close()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid body", errors.BadRequest(), errors.WithCause(err))
	}
	if len(req.Perms) == 0 {
		return nil, errors.New("no permissions requested", errors.BadRequest())
	}
	for path := range req.Perms {
		if !driveauth.ParsePath(path).Valid() {
			return nil, errBadPath(path)
		}
	}

	return authorizeRequest{Bearer: bearer, Request: req}, nil
}

func decodeGrantRequest(granted bool) kithttp.DecodeRequestFunc {
	return func(ctx context.Context, r *http.Request) (interface{}, error) {
		bearer := driveauth.RequestToken(r)
		defer r.Body.Close()

		var body struct {
			Path     string `json:"path"`
			Identity string `json:"identity"`
			Level    string `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, errors.New("invalid body", errors.BadRequest(), errors.WithCause(err))
		}

		level, ok := driveauth.ParseLevel(body.Level)
		if !ok {
			return nil, errors.New(fmt.Sprintf("unknown level %q", body.Level), errors.BadRequest())
		}
		if body.Identity == "" {
			return nil, errors.New("an identity is required", errors.BadRequest())
		}
		if !driveauth.ParsePath(body.Path).Valid() {
			return nil, errBadPath(body.Path)
		}

		return grantRequest{
			Bearer:   bearer,
			Path:     body.Path,
			Identity: driveauth.Identity(body.Identity),
			Level:    level,
			Granted:  granted,
		}, nil
	}
}

func decodeCheckRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	bearer := driveauth.RequestToken(r)

	path := r.URL.Query().Get("path")
	if !driveauth.ParsePath(path).Valid() {
		return nil, errBadPath(path)
	}

	level, ok := driveauth.ParseLevel(r.URL.Query().Get("op"))
	if !ok {
		return nil, errors.New(fmt.Sprintf("unknown op %q", r.URL.Query().Get("op")), errors.BadRequest())
	}

	return checkRequest{Bearer: bearer, Path: path, Level: level}, nil
}

func errBadPath(path string) error {
	return errors.New(fmt.Sprintf("invalid path %q", path), errors.BadRequest())
}

// encodeError writes an error as an HTTP response, honoring the status
// code carried by the error.
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	statusCode := http.StatusInternalServerError
	if err, ok := err.(errors.Error); ok {
		statusCode = err.Code()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}

package auth

import (
	"context"

	"github.com/driveauth/driveauth"
	"github.com/driveauth/driveauth/errors"
)

var errInvalidRequest = errors.New("invalid request", errors.BadRequest())

type Endpoint struct {
	service *Service
}

func NewEndpoint(s *Service) Endpoint {
	return Endpoint{
		service: s,
	}
}

type authorizeRequest struct {
	Bearer  string
	Request Request
}

func (ep Endpoint) Authorize(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(authorizeRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	token, err := ep.service.Authorize(ctx, req.Bearer, req.Request)
	if err != nil {
		return nil, err
	}
	return map[string]string{"token": token}, nil
}

type grantRequest struct {
	Bearer   string
	Path     string
	Identity driveauth.Identity
	Level    driveauth.Level
	Granted  bool
}

func (ep Endpoint) Grant(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(grantRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	err := ep.service.SetGrant(req.Bearer, req.Path, req.Identity, req.Level, req.Granted)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type checkRequest struct {
	Bearer string
	Path   string
	Level  driveauth.Level
}

func (ep Endpoint) Check(ctx context.Context, r interface{}) (interface{}, error) {
	req, ok := r.(checkRequest)
	if !ok {
		return nil, errInvalidRequest
	}

	allowed := ep.service.Can(req.Bearer, req.Path, req.Level)
	return map[string]bool{"allowed": allowed}, nil
}

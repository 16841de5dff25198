package middleware

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthenticated = errors.New("middleware: caller identity required")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorMessage is implemented by commands and queries issued on behalf of a
// user. Ownership and participation checks happen in the handlers; this layer
// only makes sure there is somebody to check.
type ActorMessage interface {
	ActorID() string
}

// RequireActor rejects actor-bound messages that carry no user id. System
// messages such as the lifecycle sweep pass through.
type RequireActor struct{}

func (RequireActor) Authorize(_ context.Context, message any) error {
	if m, ok := message.(ActorMessage); ok && strings.TrimSpace(m.ActorID()) == "" {
		return ErrUnauthenticated
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommands(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardQueries(a.Authorize)
}

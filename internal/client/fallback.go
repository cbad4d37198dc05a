package client

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"careconnect.org/internal/obs"
)

// genericMessage is the only text shown for failures that carry no usable
// application message.
const genericMessage = "something went wrong"

// transportError means the call produced no usable response.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return genericMessage }
func (e *transportError) Unwrap() error { return e.err }

// statusError is a well-formed rejection from the server. The message is
// already sanitized by decodeErrorMessage.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

// Status returns the HTTP status of a server rejection, or 0 when err was not
// one.
func Status(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

// unavailable classifies a failed remote call. The backend counts as
// unavailable when the call never produced a response, when the server
// failed (5xx), or when the route itself is missing (404, typically a
// backendless deployment). Everything else is a genuine application
// rejection and must reach the caller unchanged.
func unavailable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500 || se.status == http.StatusNotFound
	}
	return true
}

// attempt is the two-phase contract every façade operation follows: remote
// first and authoritative; on an unavailable backend, the local equivalent
// answers with the same result shape. Application rejections propagate with
// their message intact and never trigger the fallback.
func attempt[T any](ctx context.Context, c *Client, op string, remote func() (T, error), local func() (T, error)) (T, error) {
	out, err := remote()
	if err == nil {
		return out, nil
	}
	if !unavailable(err) {
		return out, err
	}

	c.log.Debug("backend unavailable, serving locally",
		zap.String("operation", op), zap.Error(err))
	obs.CountFallback(op)
	c.pause(ctx)

	c.localMu.Lock()
	defer c.localMu.Unlock()
	return local()
}

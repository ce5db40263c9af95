package rest

import (
	"errors"
	"fmt"
	"net/http"

	disgorest "github.com/disgoorg/disgo/rest"
)

// ErrRemoteRequest is matched by every failed outbound call.
var ErrRemoteRequest = errors.New("remote request failed")

// JSON error codes the library reacts to.
const (
	CodeUnknownMessage                 = 10008
	CodeUnknownWebhook                 = 10015
	CodeUnknownInteraction             = 10062
	CodeUnknownApplicationCommand      = 10063
	CodeInteractionAlreadyAcknowledged = 40060
	CodeInvalidWebhookToken            = 50027
)

// RemoteRequestError wraps a failed outbound call with its HTTP status and JSON error code.
type RemoteRequestError struct {
	Op      string
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *RemoteRequestError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s: status %d code %d: %s", ErrRemoteRequest, e.Op, e.Status, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrRemoteRequest, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", ErrRemoteRequest, e.Op)
	}
}

// Is lets errors.Is match ErrRemoteRequest.
func (e *RemoteRequestError) Is(target error) bool {
	return target == ErrRemoteRequest
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// Expired reports whether the error means the interaction token can no longer be used.
func (e *RemoteRequestError) Expired() bool {
	switch e.Code {
	case CodeUnknownInteraction, CodeUnknownWebhook, CodeInvalidWebhookToken:
		return true
	}
	return false
}

// NotFound reports whether the remote object does not exist.
func (e *RemoteRequestError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsExpired reports whether err is a remote error caused by an expired interaction token.
func IsExpired(err error) bool {
	var remote *RemoteRequestError
	return errors.As(err, &remote) && remote.Expired()
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var remote *RemoteRequestError
	return errors.As(err, &remote) && remote.NotFound()
}

// wrapError converts a disgo error into a RemoteRequestError.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	remote := &RemoteRequestError{Op: op, Err: err}

	var restErr *disgorest.Error
	if errors.As(err, &restErr) {
		remote.Code = int(restErr.Code)
		remote.Message = restErr.Message
		if restErr.Response != nil {
			remote.Status = restErr.Response.StatusCode
		}
	}

	return remote
}

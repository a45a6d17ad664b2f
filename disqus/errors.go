package disqus

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeRequest marks transport failures: connection, timeout, cancellation,
	// malformed bodies and unsupported methods.
	TextCodeRequest = "DISQUS_REQUEST_FAILED"
	// TextCodeRemote marks envelopes with a non zero code.
	TextCodeRemote = "DISQUS_REMOTE_ERROR"
	// TextCodeAccessToken marks write calls attempted without an access token.
	TextCodeAccessToken = "DISQUS_ACCESS_TOKEN_REQUIRED"
)

// RemoteAPIError carries a rejected envelope verbatim.
type RemoteAPIError struct {
	Operation string
	Code      int
	Response  json.RawMessage
}

// Error implements the error interface.
func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("disqus %s: code %d: %s", e.Operation, e.Code, e.Message())
}

// Message returns the error detail, unquoted when the server sent a plain string.
func (e *RemoteAPIError) Message() string {
	var msg string
	if err := json.Unmarshal(e.Response, &msg); err == nil {
		return msg
	}
	return string(e.Response)
}

func newRequestError(op Operation, requestID string, err error) error {
	e := goerrors.Wrap(err, goerrors.CategoryExternal, "disqus "+op.String()+" request failed").
		WithTextCode(TextCodeRequest).
		WithRequestID(requestID).
		WithMetadata(map[string]any{"operation": op.String()})
	if isTimeout(err) {
		e = e.WithCode(goerrors.CodeRequestTimeout)
	}
	return e
}

func newRemoteError(op Operation, requestID string, status int, remote *RemoteAPIError) error {
	return goerrors.Wrap(remote, goerrors.CategoryExternal, "disqus "+op.String()+" rejected").
		WithTextCode(TextCodeRemote).
		WithRequestID(requestID).
		WithMetadata(map[string]any{
			"operation":   op.String(),
			"remote_code": remote.Code,
			"http_status": status,
		})
}

func errAccessTokenRequired(op Operation) error {
	return goerrors.New("disqus "+op.String()+" requires an access token", goerrors.CategoryAuth).
		WithTextCode(TextCodeAccessToken).
		WithCode(goerrors.CodeUnauthorized)
}

// IsRequestError reports whether err is a transport level failure.
func IsRequestError(err error) bool {
	return hasTextCode(err, TextCodeRequest)
}

// IsRemoteAPIError reports whether err carries a rejected envelope.
func IsRemoteAPIError(err error) bool {
	var remote *RemoteAPIError
	return goerrors.As(err, &remote)
}

// AsRemoteAPIError extracts the rejected envelope from err.
func AsRemoteAPIError(err error) (*RemoteAPIError, bool) {
	var remote *RemoteAPIError
	if goerrors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return IsRequestError(err) && isTimeout(err)
}

func isTimeout(err error) bool {
	if goerrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return goerrors.As(err, &netErr) && netErr.Timeout()
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}

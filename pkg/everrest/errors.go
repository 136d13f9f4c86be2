package everrest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

// Error keys the shop API reports in failed responses.
const (
	ErrKeyAlreadyHasCart = "errors.user_already_has_cart"
	ErrKeyTokenExpired   = "errors.token_expired"
)

// RemoteError is a non-2xx answer from the shop API.
type RemoteError struct {
	Status  int
	Keys    []string
	Message string
}

func newRemoteError(status int, body []byte) *RemoteError {
	out := &RemoteError{Status: status}
	var payload struct {
		Error     string   `json:"error"`
		Message   any      `json:"message"`
		ErrorKeys []string `json:"errorKeys"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		out.Keys = payload.ErrorKeys
		out.Message = payload.Error
		if out.Message == "" && payload.Message != nil {
			out.Message = fmt.Sprint(payload.Message)
		}
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(body))
	}
	return out
}

func (e *RemoteError) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("status %d: %s", e.Status, strings.Join(e.Keys, ","))
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *RemoteError) StatusCode() int     { return e.Status }
func (e *RemoteError) ErrorKeys() []string { return e.Keys }

// HasKey reports whether the response carried the given error key.
func (e *RemoteError) HasKey(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// HasErrorKey reports whether err wraps a RemoteError carrying key.
func HasErrorKey(err error, key string) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.HasKey(key)
}

func classify(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shop api temporarily unavailable")
	}

	var remote *RemoteError
	if !errors.As(err, &remote) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" failed")
	}

	switch {
	case remote.HasKey(ErrKeyTokenExpired):
		return pkgerrors.Wrap(pkgerrors.CodeSessionExpired, remote, "session expired")
	case remote.HasKey(ErrKeyAlreadyHasCart):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, remote, "cart already exists")
	case remote.Status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, remote, op+" not found")
	case remote.Status == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, remote, op+" rejected credentials")
	case remote.Status == http.StatusBadRequest || remote.Status == http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, remote, op+" rejected").WithDetails(map[string]any{"reason": remote.Message})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, remote, op+" failed")
	}
}

package tusky

import (
	"errors"
	"fmt"
	"net/http"

	"tusky-uploader/internal/common"
)

// ErrUnauthorized matches 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("API error (%d) %s: invalid token (401 Unauthorized)", e.StatusCode, e.Endpoint)
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("API error (%d) %s", e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("API error (%d) %s: %s", e.StatusCode, e.Endpoint, common.Truncate(string(e.Body), 200))
}

// Is makes every APIError a network error, and 401 also a protocol error.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrNetwork:
		return true
	case common.ErrProtocol, ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

package sources

import (
	"errors"
	"fmt"
	"net/http"
)

const maxErrorLength = 300

var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-200 reply from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.Code == http.StatusTooManyRequests
}

// TruncateError shortens err for logging. API error pages can be very long.
func TruncateError(err error) error {
	if err == nil {
		return nil
	}
	if msg := err.Error(); len(msg) > maxErrorLength {
		return fmt.Errorf("%s...", msg[:maxErrorLength])
	}
	return err
}

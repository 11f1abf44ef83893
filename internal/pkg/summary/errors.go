package summary

import (
	"errors"
	"fmt"
)

var (
	errEndpointNotConfigured = errors.New("summary endpoint not configured")
	errEmptyReply            = errors.New("summary service returned empty reply")
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("summary service returned status %d", e.code)
}

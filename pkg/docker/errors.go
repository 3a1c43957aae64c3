package docker

import (
	"errors"
	"fmt"
	"strings"

	dc "github.com/docker/docker/client"
)

// NotFoundError is returned when the engine has no object called Ref.
type NotFoundError struct {
	Object string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Object, e.Ref)
}

func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// Engines behind ssh tunnels or older daemons do not always return typed errors.
// These helpers normalize the check so callers don't care which one they talk to.

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if dc.IsErrNotFound(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "No such")
}

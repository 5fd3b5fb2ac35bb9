package session

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is wrapped by every ValidateName failure.
var ErrInvalidName = errors.New("invalid profile name")

// Profile names double as directory names under profiles/.
var profileName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

func ValidateName(name string) error {
	if !profileName.MatchString(name) {
		return fmt.Errorf("%w %q: use 1 to 64 of a-z, 0-9, '_' and '-'", ErrInvalidName, name)
	}
	return nil
}

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ErrNoIdentity is returned when a profile has not been initialised.
var ErrNoIdentity = errors.New("profile has no identity; run hfctl init")

// LoadIdentity reads the principal the profile acts as.
func LoadIdentity(name string) (string, error) {
	data, err := os.ReadFile(IdentityPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoIdentity
	}
	if err != nil {
		return "", fmt.Errorf("read identity: %w", err)
	}
	principal := strings.TrimSpace(string(data))
	if principal == "" {
		return "", ErrNoIdentity
	}
	return principal, nil
}

// EnsureIdentity returns the profile's principal, minting and persisting a
// new one on first use. created reports whether a new principal was written.
func EnsureIdentity(name string) (principal string, created bool, err error) {
	principal, err = LoadIdentity(name)
	if err == nil {
		return principal, false, nil
	}
	if !errors.Is(err, ErrNoIdentity) {
		return "", false, err
	}
	if err := EnsureDir(name); err != nil {
		return "", false, err
	}
	principal = "hf-" + uuid.NewString()
	if err := os.WriteFile(IdentityPath(name), []byte(principal+"\n"), 0600); err != nil {
		return "", false, fmt.Errorf("write identity: %w", err)
	}
	return principal, true, nil
}

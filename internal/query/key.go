package query

import "strings"

// Key identifies a cached query: operation name followed by arguments.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// Name is the operation part of the key.
func (k Key) Name() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether every element of p matches the start of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Event kinds published on the bus, as "query:<key>:<suffix>".
const (
	EventUpdated     = "updated"
	EventFailed      = "failed"
	EventInvalidated = "invalidated"
)

// Namespace returns the bus namespace that receives events for key k only.
func Namespace(k Key) string {
	return "query:" + k.String() + ":"
}

func eventKind(k Key, suffix string) string {
	return Namespace(k) + suffix
}

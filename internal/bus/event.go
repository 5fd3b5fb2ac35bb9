package bus

import (
	"strings"
	"time"
)

// Event is one publication on the bus. Kind reads as a path of segments,
// "message.send_ack" or "query:messages/c1:updated", that subscribers
// select by prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Matches reports whether a subscriber to namespace receives e.
func (e Event) Matches(namespace string) bool {
	return strings.HasPrefix(e.Kind, namespace)
}

// Outcome is the segment after the last ':' of a query event, such as
// "updated" or "failed". Kinds without a ':' have none.
func (e Event) Outcome() string {
	i := strings.LastIndexByte(e.Kind, ':')
	if i < 0 {
		return ""
	}
	return e.Kind[i+1:]
}

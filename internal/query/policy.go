package query

import "time"

// Policy controls when a key is refetched.
type Policy struct {
	// StaleTime is how long fetched data counts as fresh. Reads of fresh
	// data never fetch.
	StaleTime time.Duration
	// PollInterval refetches the key on a timer while it is watched.
	// Zero disables polling.
	PollInterval time.Duration
	// Retry is the number of extra attempts after a failed fetch.
	Retry int
	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration
}

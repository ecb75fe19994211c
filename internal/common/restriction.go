package common

import "time"

// A restriction means that only the specified number of requests
// are allowed for a specific time duration
type Restriction struct {
	Requests int
	Duration time.Duration
}

// Count the requests in the history that fall inside my duration,
// looking back from the provided time.
// Start counting from the end.
// If one request is too old, the rest will be too
func (rest *Restriction) Count(history []time.Time, now time.Time) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if now.Sub(history[i]) > rest.Duration {
			break
		}
		count++
	}
	return count
}

// A restriction is exceeded when the history holds strictly
// more requests than allowed inside my duration
func (rest *Restriction) Exceeded(history []time.Time, now time.Time) bool {
	return rest.Count(history, now) > rest.Requests
}

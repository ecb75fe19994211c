package common

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	MAX_CALLS_PER_MINUTE int           = 10
	LOCK_DURATION        time.Duration = 180 * time.Second
	CALL_WINDOW          time.Duration = time.Minute
	HISTORY_RETENTION    time.Duration = time.Hour
)

type LimiterConfig struct {
	MaxCalls     int           // Calls allowed inside the window before locking
	Window       time.Duration // Trailing window the calls are counted in
	LockDuration time.Duration // How long a caller stays locked
	Retention    time.Duration // History older than this is dropped
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		MaxCalls:     MAX_CALLS_PER_MINUTE,
		Window:       CALL_WINDOW,
		LockDuration: LOCK_DURATION,
		Retention:    HISTORY_RETENTION,
	}
}

// Returned by the rate limiter whenever a caller is denied,
// either because it is locked or because it has just been locked
type RateLimitExceeded struct {
	Message string
}

func (e *RateLimitExceeded) Error() string {
	return e.Message
}

// Snapshot of the state of a caller, as seen at a given moment
type Usage struct {
	Calls     int           // Calls inside the trailing window
	MaxCalls  int           // Calls allowed inside the window
	Locked    bool          // If the caller is currently locked
	Remaining time.Duration // Time left until the lock is lifted
}

type caller struct {
	history []time.Time // Attempts that were let through, oldest first
	lockout Stopwatch   // Running only while the caller is locked
}

// The rate limiter keeps, for every caller, the history of its allowed
// attempts. A caller exceeding the allowed calls inside the window
// gets locked for a fixed amount of time, and every attempt during
// that time is rejected without being recorded
type RateLimiter[K comparable] struct {
	mu          sync.Mutex
	config      LimiterConfig
	restriction Restriction
	callers     map[K]*caller
	clock       Clock
}

func NewRateLimiter[K comparable](config LimiterConfig, clock Clock) *RateLimiter[K] {
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter[K]{
		config:      config,
		restriction: Restriction{Requests: config.MaxCalls, Duration: config.Window},
		callers:     make(map[K]*caller),
		clock:       clock,
	}
}

func (rl *RateLimiter[K]) Config() LimiterConfig {
	return rl.config
}

// Decide if the caller is allowed to perform an action right now.
// A nil return means the action is allowed, otherwise the returned
// error is a *RateLimitExceeded with the message to show to the caller
func (rl *RateLimiter[K]) Check(key K) error {

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	c, ok := rl.callers[key]
	if !ok {
		c = &caller{}
		rl.callers[key] = c
	}

	// Lift an expired lock first
	if c.lockout.Running && !now.Before(c.lockout.Deadline()) {
		c.lockout.Stop()
		log.Debug().Interface("caller", key).Msg("Caller unlocked")
	}

	// Locked callers are rejected, and the attempt is not recorded
	if c.lockout.Running {
		remaining := c.lockout.Deadline().Sub(now)
		return &RateLimitExceeded{
			Message: fmt.Sprintf("You're currently locked out due to too many commands. Try again in %s.", FormatRemaining(remaining)),
		}
	}

	c.history = append(c.history, now)
	c.history = rl.trim(c.history, now)

	if rl.restriction.Exceeded(c.history, now) {
		c.lockout = NewStopwatch(rl.config.LockDuration, rl.clock)
		c.lockout.StartAt(now)
		log.Debug().Interface("caller", key).Msg(fmt.Sprintf("Caller locked until %s", c.lockout.Deadline().Format(time.TimeOnly)))
		return &RateLimitExceeded{
			Message: fmt.Sprintf("Too many commands — you've been locked out for %d minutes.", int(rl.config.LockDuration/time.Minute)),
		}
	}

	return nil
}

// Report the current state of a caller without modifying it
func (rl *RateLimiter[K]) Usage(key K) Usage {

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	usage := Usage{MaxCalls: rl.config.MaxCalls}
	c, ok := rl.callers[key]
	if !ok {
		return usage
	}
	usage.Calls = rl.restriction.Count(c.history, now)
	if c.lockout.Running {
		if remaining := c.lockout.Deadline().Sub(now); remaining > 0 {
			usage.Locked = true
			usage.Remaining = remaining
		}
	}
	return usage
}

// Forget the callers that are not locked and whose history is
// completely out of the retention period.
// Returns the number of callers removed
func (rl *RateLimiter[K]) Sweep() int {

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	removed := 0
	for key, c := range rl.callers {
		if c.lockout.Running && now.Before(c.lockout.Deadline()) {
			continue
		}
		c.history = rl.trim(c.history, now)
		if len(c.history) == 0 {
			delete(rl.callers, key)
			removed++
		}
	}
	log.Debug().Msg(fmt.Sprintf("Rate limiter sweep removed %d callers, %d remain", removed, len(rl.callers)))
	return removed
}

// Number of callers currently tracked
func (rl *RateLimiter[K]) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.callers)
}

// Trim the history, leaving only the attempts
// that are young enough to be retained.
// I assume times are stored in chronological order
func (rl *RateLimiter[K]) trim(history []time.Time, now time.Time) []time.Time {
	index := 0
	for index < len(history) && now.Sub(history[index]) > rl.config.Retention {
		index++
	}
	return slices.Delete(history, 0, index)
}

// Format a remaining time as minutes and seconds, leaving out
// the minutes when there are none. Fractions of a second are dropped
func FormatRemaining(remaining time.Duration) string {
	seconds := int(remaining / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	minutes, seconds := seconds/60, seconds%60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

package college

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AccessLabel is the display once a countdown reaches zero.
const AccessLabel = "Accéder"

// Countdown ticks a lesson's remaining time down to its access state. Once
// unlocked it stays unlocked: further ticks are no-ops and the unlock
// callback fires at most once.
type Countdown struct {
	mu        sync.Mutex
	remaining int64
	unlocked  bool

	// OnUnlock, when set, is called exactly once as the countdown reaches
	// zero. Set it before the first Tick.
	OnUnlock func()
}

// NewCountdown creates a countdown from a listing entry. Entries already
// accessible, or carrying no usable numeric value, start unlocked or from
// the parsed first-paint string respectively.
func NewCountdown(entry DayLesson) *Countdown {
	c := &Countdown{remaining: entry.RemainingSeconds}
	if entry.Accessible || c.remaining <= 0 {
		// The server clamps at zero, but a zero with Accessible unset still
		// means reachable now.
		if entry.Accessible {
			c.remaining = 0
			c.unlocked = true
		} else if secs, err := ParseRemaining(entry.Remaining); err == nil && secs > 0 {
			// Numeric field missing; fall back to the display string.
			c.remaining = secs
		} else {
			c.remaining = 0
			c.unlocked = true
		}
	}
	return c
}

// Tick advances the countdown by one second. Returns the current display.
func (c *Countdown) Tick() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unlocked {
		return AccessLabel
	}

	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.unlocked = true
		if c.OnUnlock != nil {
			c.OnUnlock()
		}
		return AccessLabel
	}
	return FormatClock(c.remaining)
}

// Display returns the current display without advancing.
func (c *Countdown) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unlocked {
		return AccessLabel
	}
	return FormatClock(c.remaining)
}

// Unlocked reports whether the countdown has reached its terminal state.
func (c *Countdown) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlocked
}

// Run ticks once per second until the countdown unlocks or ctx is
// cancelled, reporting each display on the channel. The channel is closed
// on return.
func (c *Countdown) Run(ctx context.Context, out chan<- string) {
	defer close(out)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			display := c.Tick()
			select {
			case out <- display:
			case <-ctx.Done():
				return
			}
			if c.Unlocked() {
				return
			}
		}
	}
}

// FormatClock renders remaining seconds as the ticking clock display:
// hours, minutes and seconds, each zero-padded, separated by " : ".
// FormatClock(3661) == "01 : 01 : 01".
func FormatClock(remainingSeconds int64) string {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	hours := remainingSeconds / 3600
	minutes := (remainingSeconds % 3600) / 60
	seconds := remainingSeconds % 60
	return fmt.Sprintf("%02d : %02d : %02d", hours, minutes, seconds)
}

// ParseRemaining reads the server's first-paint display ("01h 01m 01s")
// back into seconds. AccessLabel parses to zero.
func ParseRemaining(display string) (int64, error) {
	if display == AccessLabel {
		return 0, nil
	}
	var h, m, s int64
	if _, err := fmt.Sscanf(display, "%dh %dm %ds", &h, &m, &s); err != nil {
		return 0, fmt.Errorf("unrecognized remaining display %q: %w", display, err)
	}
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("remaining display %q out of range", display)
	}
	return h*3600 + m*60 + s, nil
}

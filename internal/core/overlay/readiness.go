package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/seckatie/marktube/internal/core"
)

// ErrControlsNotFound is returned when the player controls never appear.
var ErrControlsNotFound = errors.New("player controls not found")

// ReadinessPolicy bounds the wait for the host page's controls.
type ReadinessPolicy struct {
	// Interval is the pause between two probes.
	Interval time.Duration
	// MaxAttempts caps the number of probes.
	MaxAttempts int
	// Timeout caps the whole wait. Zero means Interval * MaxAttempts plus one
	// interval of slack.
	Timeout time.Duration
}

// DefaultReadinessPolicy probes once a second for up to 30 seconds.
func DefaultReadinessPolicy() ReadinessPolicy {
	return ReadinessPolicy{
		Interval:    core.DefaultRetryInterval,
		MaxAttempts: core.DefaultMaxAttempts,
	}
}

func (p ReadinessPolicy) normalized() ReadinessPolicy {
	def := DefaultReadinessPolicy()
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = p.Interval * time.Duration(p.MaxAttempts+1)
	}
	return p
}

// waitForControls probes page until the control bar and player are both
// present, the attempts run out, or the timeout expires.
func waitForControls(ctx context.Context, page Page, policy ReadinessPolicy, logger *log.Logger) error {
	policy = policy.normalized()

	ctx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(policy.Interval), 1)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: gave up after %d attempt(s): %v", ErrControlsNotFound, attempt-1, err)
		}

		ready, err := page.ControlsReady(ctx)
		if err != nil {
			logger.Debug("probing player controls failed", "attempt", attempt, "err", err)
		}
		if ready {
			return nil
		}
		logger.Debug("player controls not present yet", "attempt", attempt)
	}
	return fmt.Errorf("%w after %d attempts", ErrControlsNotFound, policy.MaxAttempts)
}

package job

import (
	"errors"
	"time"
)

// Default delay bounds used when no DelayPolicy is configured.
const (
	DefaultCompletionDelay    = 20 * time.Second
	DefaultMaxCompletionDelay = 24 * time.Hour
)

// ErrInvalidMaxDelay indicates the configured maximum completion delay is not positive.
var ErrInvalidMaxDelay = errors.New("max completion delay must be positive")

// DelaySource identifies how a completion delay was resolved.
type DelaySource string

const (
	// DelaySourceExplicit indicates the caller's delay was used unchanged.
	DelaySourceExplicit DelaySource = "explicit"
	// DelaySourceDefault indicates the default delay was used.
	DelaySourceDefault DelaySource = "default"
	// DelaySourceClamped indicates the requested delay exceeded the maximum.
	DelaySourceClamped DelaySource = "clamped"
)

// DelayPolicy normalises completion delays requested at submission.
type DelayPolicy struct {
	defaultDelay time.Duration
	maxDelay     time.Duration
}

// NewDelayPolicy constructs a DelayPolicy. The default is capped at maxDelay.
func NewDelayPolicy(defaultDelay, maxDelay time.Duration) (*DelayPolicy, error) {
	if maxDelay <= 0 {
		return nil, ErrInvalidMaxDelay
	}
	if defaultDelay < 0 {
		defaultDelay = 0
	}
	if defaultDelay > maxDelay {
		defaultDelay = maxDelay
	}
	return &DelayPolicy{defaultDelay: defaultDelay, maxDelay: maxDelay}, nil
}

// DefaultDelayPolicy returns a policy using DefaultCompletionDelay and DefaultMaxCompletionDelay.
func DefaultDelayPolicy() *DelayPolicy {
	return &DelayPolicy{defaultDelay: DefaultCompletionDelay, maxDelay: DefaultMaxCompletionDelay}
}

// Default returns the delay used when the caller supplies none.
func (p *DelayPolicy) Default() time.Duration {
	if p == nil {
		return 0
	}
	return p.defaultDelay
}

// DelayDecision captures the outcome of resolving a delay request.
type DelayDecision struct {
	Delay     time.Duration
	Source    DelaySource
	Requested *time.Duration
}

// UsedDefault reports whether the policy fell back to the default delay.
func (d DelayDecision) UsedDefault() bool {
	return d.Source == DelaySourceDefault
}

// Clamped reports whether the requested delay was reduced to the maximum.
func (d DelayDecision) Clamped() bool {
	return d.Source == DelaySourceClamped
}

// Resolve normalises the requested delay. A nil request selects the default.
// Negative requests are the caller's responsibility to reject; they resolve to zero here.
func (p *DelayPolicy) Resolve(request *time.Duration) DelayDecision {
	decision := DelayDecision{Requested: request}
	if p == nil {
		if request != nil && *request > 0 {
			decision.Delay = *request
		}
		decision.Source = DelaySourceExplicit
		return decision
	}

	switch {
	case request == nil:
		decision.Delay = p.defaultDelay
		decision.Source = DelaySourceDefault
	case *request > p.maxDelay:
		decision.Delay = p.maxDelay
		decision.Source = DelaySourceClamped
	case *request < 0:
		decision.Delay = 0
		decision.Source = DelaySourceClamped
	default:
		decision.Delay = *request
		decision.Source = DelaySourceExplicit
	}
	return decision
}

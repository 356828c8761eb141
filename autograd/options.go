package autograd

import (
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/dispatch"
	"github.com/ft-systems/frankentorch/internal/obslog"
)

// ReentrantPolicy selects how backward reacts to a caller-asserted
// reentrant depth exceeding the configured maximum.
type ReentrantPolicy uint8

const (
	// StrictFail returns ReentrantDepthExceeded.
	StrictFail ReentrantPolicy = iota
	// HardenedBoundedFallback sets both telemetry booleans, clamps the
	// recorded depth to max, then continues the pass as normal.
	HardenedBoundedFallback
)

// BackwardOptions configures a single backward invocation's reentrancy
// guard.
type BackwardOptions struct {
	MaxReentrantDepth     int
	CurrentReentrantDepth int
	Policy                ReentrantPolicy
	// Logger is optional; a nil value is treated as a no-op logger.
	Logger *zap.Logger
}

// StrictDefault is the zero-tolerance reentrancy posture paired with strict
// dispatch mode.
func StrictDefault() BackwardOptions {
	return BackwardOptions{MaxReentrantDepth: 0, CurrentReentrantDepth: 0, Policy: StrictFail}
}

// HardenedDefault permits up to two levels of reentrant backward before
// falling back, paired with hardened dispatch mode.
func HardenedDefault() BackwardOptions {
	return BackwardOptions{MaxReentrantDepth: 2, CurrentReentrantDepth: 0, Policy: HardenedBoundedFallback}
}

// ForMode picks the default reentrancy posture matching a dispatch
// execution mode.
func ForMode(mode dispatch.ExecutionMode) BackwardOptions {
	if mode == dispatch.Hardened {
		return HardenedDefault()
	}
	return StrictDefault()
}

// SchedulerTelemetry records the observable behaviour of a single backward
// pass: every field here must be bit-identical across repeated invocations
// for a fixed forward trace (P1).
type SchedulerTelemetry struct {
	ExecutionOrder          []int
	QueuePushes             int
	QueuePops               int
	MaxQueueLen             int
	DependencySnapshot      []int
	ReentrantDepth          int
	ReentrantGuardTriggered bool
	HardenedFallbackUsed    bool
}

// reentrancyGuard applies the reentrant-depth policy, returning the booleans
// and the clamped recorded depth, or a *ReentrantDepthExceededError under
// StrictFail.
func reentrancyGuard(opts BackwardOptions) (depth int, guardTriggered, fallbackUsed bool, err error) {
	guardTriggered = false
	fallbackUsed = false
	if opts.CurrentReentrantDepth > opts.MaxReentrantDepth {
		switch opts.Policy {
		case StrictFail:
			depthErr := &ReentrantDepthExceededError{Current: opts.CurrentReentrantDepth, Max: opts.MaxReentrantDepth}
			obslog.FailClosed(opts.Logger, "autograd.backward", depthErr)
			return 0, false, false, depthErr
		case HardenedBoundedFallback:
			guardTriggered = true
			fallbackUsed = true
			obslog.Fallback(opts.Logger, "autograd.backward",
				zap.Int("current_reentrant_depth", opts.CurrentReentrantDepth),
				zap.Int("max_reentrant_depth", opts.MaxReentrantDepth),
			)
		}
	}
	depth = opts.CurrentReentrantDepth
	if depth > opts.MaxReentrantDepth {
		depth = opts.MaxReentrantDepth
	}
	return depth, guardTriggered, fallbackUsed, nil
}

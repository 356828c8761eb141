// Package obslog wraps go.uber.org/zap for the structured, leveled logging
// that the dispatch, autograd, checkpoint, raptorq and session packages
// accept optionally (tensor and kernelcpu take no logger): a nil logger
// is treated as zap.NewNop(), and exactly one structured event is emitted
// per fail-closed error and per hardened-mode fallback decision.
package obslog

import "go.uber.org/zap"

// NopSafe returns logger unchanged, or a no-op logger if logger is nil.
// Every call site in this module that accepts an optional *zap.Logger
// routes it through NopSafe before use.
func NopSafe(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// FailClosed logs a single structured event for a contract violation the
// caller is about to surface as a typed error. op names the operation that
// failed; err is the error being returned.
func FailClosed(logger *zap.Logger, op string, err error) {
	NopSafe(logger).Warn("fail-closed",
		zap.String("op", op),
		zap.Error(err),
	)
}

// Fallback logs a single structured event for a hardened-mode routing or
// reentrancy fallback decision. op names the operation that fell back;
// fields carries whatever context the caller has on hand (kernel name,
// selected key, reentrant depth, and so on).
func Fallback(logger *zap.Logger, op string, fields ...zap.Field) {
	all := append([]zap.Field{zap.String("op", op)}, fields...)
	NopSafe(logger).Info("hardened-fallback", all...)
}

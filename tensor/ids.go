package tensor

import "sync/atomic"

// nextTensorID and nextStorageID are process-global monotonic counters.
// Neither is ever decremented or reused, and neither is persisted across
// process restarts — ids are stable only within a single run.
var (
	nextTensorID  uint64
	nextStorageID uint64
)

func allocTensorID() uint64 {
	return atomic.AddUint64(&nextTensorID, 1)
}

func allocStorageID() uint64 {
	return atomic.AddUint64(&nextStorageID, 1)
}

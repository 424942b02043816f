package buildscratch

import "errors"

// ErrOutOfMemory is returned when a build-time scratch allocation
// request is large enough that attempting it is more likely to exhaust
// memory than to succeed; the caller's pivot-cap-style retry is
// expected to back off rather than let the runtime allocator panic.
var ErrOutOfMemory = errors.New("buildscratch: out of memory")

// maxBuckets bounds the per-call bucket count New will attempt to
// allocate slices for. Past this, len(buckets) and len(files) slices
// alone would run well past any reasonable build's working set; PTHash
// and BuRR bucket counts for realistic n stay many orders below it.
const maxBuckets = 1 << 20

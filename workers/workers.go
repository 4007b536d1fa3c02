package workers

import "sync/atomic"

// WorkerShutdown is set when the HTTP service stops, or by a worker that cannot
// persist its progress; every worker loop exits once it is set.
var WorkerShutdown atomic.Bool

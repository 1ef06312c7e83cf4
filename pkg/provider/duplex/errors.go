package duplex

import "errors"

// ErrResourceExhausted indicates the backend refused service because the
// account quota is exhausted (HTTP 429 / RESOURCE_EXHAUSTED). Transports wrap
// it with %w; callers match it with errors.Is to drive engine failover.
var ErrResourceExhausted = errors.New("duplex: resource exhausted")

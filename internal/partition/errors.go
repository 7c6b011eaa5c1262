package partition

import "errors"

// ErrInvalidPartition is returned when a frame cannot be partitioned:
// non-positive tile count, non-positive dimensions, or more tiles than
// the frame has pixels.
var ErrInvalidPartition = errors.New("partition: invalid partition request")

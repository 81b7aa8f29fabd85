package metrics

// Histogram bucket parameters shared by duration metrics.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2.0
	BucketCount12  = 12 // 1ms to ~4s
	BucketCount15  = 15 // 1ms to ~32s
)

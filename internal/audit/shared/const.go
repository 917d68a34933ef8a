package shared

const (
	DefaultThresholdFactor = 5.0 // standard deviations above the mean
	DefaultHalfWidth       = 50  // samples on each side of a spike index
	DefaultEventGap        = 1   // crossings at most this far apart belong to the same event
)

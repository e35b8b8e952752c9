package fastcdc

import (
	"errors"
	"fmt"
)

// Absolute bounds on the chunk size parameters. Construction fails for
// any value outside these ranges, before any data is scanned.
const (
	// MinSizeLow and MinSizeHigh bound minSize.
	MinSizeLow  = 64
	MinSizeHigh = 67_108_864

	// AvgSizeLow and AvgSizeHigh bound avgSize.
	AvgSizeLow  = 256
	AvgSizeHigh = 268_435_456

	// MaxSizeLow and MaxSizeHigh bound maxSize.
	MaxSizeLow  = 1_024
	MaxSizeHigh = 1_073_741_824
)

var (
	// ErrMinSizeTooSmall is returned when minSize is below MinSizeLow.
	ErrMinSizeTooSmall = errors.New("minSize must be at least 64")

	// ErrMinSizeTooLarge is returned when minSize is above MinSizeHigh.
	ErrMinSizeTooLarge = errors.New("minSize must be at most 67108864")

	// ErrAvgSizeTooSmall is returned when avgSize is below AvgSizeLow.
	ErrAvgSizeTooSmall = errors.New("avgSize must be at least 256")

	// ErrAvgSizeTooLarge is returned when avgSize is above AvgSizeHigh.
	ErrAvgSizeTooLarge = errors.New("avgSize must be at most 268435456")

	// ErrMaxSizeTooSmall is returned when maxSize is below MaxSizeLow.
	ErrMaxSizeTooSmall = errors.New("maxSize must be at least 1024")

	// ErrMaxSizeTooLarge is returned when maxSize is above MaxSizeHigh.
	ErrMaxSizeTooLarge = errors.New("maxSize must be at most 1073741824")

	// ErrMinAboveAvg is returned when minSize exceeds avgSize.
	ErrMinAboveAvg = errors.New("minSize must not exceed avgSize")

	// ErrAvgAboveMax is returned when avgSize exceeds maxSize.
	ErrAvgAboveMax = errors.New("avgSize must not exceed maxSize")

	// ErrInvalidNormalization is returned when the normalization level is
	// not one of Level0 through Level3.
	ErrInvalidNormalization = errors.New("normalization level must be between 0 and 3")

	// ErrDrainTooLarge reports a stream wrapper asked to drain more bytes
	// than its buffer holds. Unreachable with a correctly functioning
	// detector; surfaced as an error rather than corrupting the stream.
	ErrDrainTooLarge = errors.New("drain requested more bytes than buffered")
)

// Option configures a Chunker beyond the three size parameters.
type Option func(*config) error

// config holds the full chunking configuration.
type config struct {
	minSize uint32
	avgSize uint32
	maxSize uint32
	level   Normalization
	seed    uint64
}

func defaultConfig(minSize, avgSize, maxSize uint32) config {
	return config{
		minSize: minSize,
		avgSize: avgSize,
		maxSize: maxSize,
		level:   Level1,
		seed:    0,
	}
}

// validate checks every absolute bound and the min ≤ avg ≤ max ordering,
// identifying the exact violation.
func (c *config) validate() error {
	if c.minSize < MinSizeLow {
		return fmt.Errorf("%w: got %d", ErrMinSizeTooSmall, c.minSize)
	}

	if c.minSize > MinSizeHigh {
		return fmt.Errorf("%w: got %d", ErrMinSizeTooLarge, c.minSize)
	}

	if c.avgSize < AvgSizeLow {
		return fmt.Errorf("%w: got %d", ErrAvgSizeTooSmall, c.avgSize)
	}

	if c.avgSize > AvgSizeHigh {
		return fmt.Errorf("%w: got %d", ErrAvgSizeTooLarge, c.avgSize)
	}

	if c.maxSize < MaxSizeLow {
		return fmt.Errorf("%w: got %d", ErrMaxSizeTooSmall, c.maxSize)
	}

	if c.maxSize > MaxSizeHigh {
		return fmt.Errorf("%w: got %d", ErrMaxSizeTooLarge, c.maxSize)
	}

	if c.minSize > c.avgSize {
		return fmt.Errorf("%w: minSize %d, avgSize %d", ErrMinAboveAvg, c.minSize, c.avgSize)
	}

	if c.avgSize > c.maxSize {
		return fmt.Errorf("%w: avgSize %d, maxSize %d", ErrAvgAboveMax, c.avgSize, c.maxSize)
	}

	return nil
}

// WithNormalization selects the normalization level. The default is
// Level1.
func WithNormalization(level Normalization) Option {
	return func(c *config) error {
		if level > Level3 {
			return fmt.Errorf("%w: got %d", ErrInvalidNormalization, level)
		}

		c.level = level

		return nil
	}
}

// WithSeed derives a per-seed gear table instead of the reference table.
// Seed zero keeps the reference table. Two chunkers agree on boundaries
// only if they agree on the seed.
func WithSeed(seed uint64) Option {
	return func(c *config) error {
		c.seed = seed

		return nil
	}
}

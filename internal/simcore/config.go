package simcore

// Config collects the parameters the core consumes from its driver
// (spec §4.2). Validate must be called — and must succeed — before
// BuildForwardReferences or ScanRuns are invoked.
type Config struct {
	// MinRunSize is the minimum length, in tokens, of a reported run.
	// Default 24 if zero.
	MinRunSize int

	// ThresholdPercentage suppresses percentage-mode matches below this
	// percent. Must be in 1..100 when percentage mode is used.
	ThresholdPercentage int

	// SeparateEach compares every file only against other files, never
	// against itself.
	SeparateEach bool

	// NoSelf suppresses self-matches of a file against itself.
	NoSelf bool

	// NewVsOld reports only matches where at least one endpoint lies in
	// the "new" partition (Text.New, set via Store.RegisterNewText) and
	// suppresses old-against-old matches entirely.
	NewVsOld bool

	// MainContributorOnly, in percentage mode, reports only each file's
	// top contributor.
	MainContributorOnly bool
}

// DefaultMinRunSize mirrors the original tool's DEFAULT_MIN_RUN_SIZE.
const DefaultMinRunSize = 24

// effectiveMinRunSize returns the configured MinRunSize, or the default.
func (c Config) effectiveMinRunSize() int {
	if c.MinRunSize == 0 {
		return DefaultMinRunSize
	}
	return c.MinRunSize
}

// Validate checks parameter ranges and returns a *ConfigurationError
// describing the first problem found, or nil.
func (c Config) Validate(percentageMode bool) error {
	if c.MinRunSize < 0 {
		return &ConfigurationError{Field: "MinRunSize", Reason: "must not be negative"}
	}
	if percentageMode {
		if c.ThresholdPercentage < 1 || c.ThresholdPercentage > 100 {
			return &ConfigurationError{Field: "ThresholdPercentage", Reason: "threshold must be between 1 and 100"}
		}
	}
	return nil
}

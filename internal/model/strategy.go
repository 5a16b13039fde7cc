package model

// Strategy is the processing tier chosen for a run.
type Strategy int

const (
	// StrategyStandard loads the whole project once.
	StrategyStandard Strategy = iota
	// StrategySurgical loads the seeds plus the files referencing them.
	StrategySurgical
	// StrategyChunked processes seeds in fixed size batches, each with its own scope.
	StrategyChunked
	// StrategyStreaming processes one seed at a time with a textual pre-filter.
	StrategyStreaming
)

func (s Strategy) String() string {
	switch s {
	case StrategyStandard:
		return "standard"
	case StrategySurgical:
		return "surgical"
	case StrategyChunked:
		return "chunked"
	case StrategyStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Tier holds the limits a strategy runs under. A zero or negative limit
// means unbounded.
type Tier struct {
	Strategy Strategy
	// BatchSize is the number of seeds sharing one scope.
	BatchSize int
	// ReferenceCap bounds the referencing files loaded per scope.
	ReferenceCap int
	// ScanLimit bounds the files inspected by the textual pre-filter.
	ScanLimit int
	// MatchLimit bounds the pre-filter matches treated as referencing files.
	MatchLimit int
}

// LoadsWholeProject reports whether the tier delegates dependency resolution
// entirely to the project model.
func (t Tier) LoadsWholeProject() bool {
	return t.Strategy == StrategyStandard
}

// UsesTextualScan reports whether the tier substitutes the basename pre-filter
// for a reference graph query.
func (t Tier) UsesTextualScan() bool {
	return t.Strategy == StrategyStreaming
}

// Batched reports whether each batch gets its own, freshly created scope.
func (t Tier) Batched() bool {
	return t.Strategy == StrategyChunked || t.Strategy == StrategyStreaming
}

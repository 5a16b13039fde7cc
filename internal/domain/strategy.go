package domain

import m "refmove.dev/pkg/refmove/internal/model"

// Tier thresholds over the number of files to move.
const (
	StandardMaxFiles = 10
	SurgicalMaxFiles = 30
	ChunkedMaxFiles  = 50
)

// Tier limits.
const (
	SurgicalReferenceCap = 100
	ChunkBatchSize       = 10
	ChunkReferenceCap    = 20
	StreamingScanLimit   = 50
	StreamingMatchLimit  = 10
)

var tiers = map[m.Strategy]m.Tier{
	m.StrategyStandard:  {Strategy: m.StrategyStandard},
	m.StrategySurgical:  {Strategy: m.StrategySurgical, ReferenceCap: SurgicalReferenceCap},
	m.StrategyChunked:   {Strategy: m.StrategyChunked, BatchSize: ChunkBatchSize, ReferenceCap: ChunkReferenceCap},
	m.StrategyStreaming: {Strategy: m.StrategyStreaming, BatchSize: 1, ScanLimit: StreamingScanLimit, MatchLimit: StreamingMatchLimit},
}

// SelectStrategy picks the processing tier from the file count alone.
func SelectStrategy(files int) m.Strategy {
	switch {
	case files <= StandardMaxFiles:
		return m.StrategyStandard
	case files <= SurgicalMaxFiles:
		return m.StrategySurgical
	case files <= ChunkedMaxFiles:
		return m.StrategyChunked
	default:
		return m.StrategyStreaming
	}
}

// TierFor returns the limits of a strategy.
func TierFor(strategy m.Strategy) m.Tier {
	return tiers[strategy]
}

// Batches splits mappings into the groups that share one scope, preserving
// order. Unbatched tiers get a single group.
func Batches(mappings []m.MoveMapping, tier m.Tier) [][]m.MoveMapping {
	if len(mappings) == 0 {
		return nil
	}

	size := tier.BatchSize
	if size <= 0 {
		return [][]m.MoveMapping{mappings}
	}

	batches := make([][]m.MoveMapping, 0, (len(mappings)+size-1)/size)
	for start := 0; start < len(mappings); start += size {
		end := min(start+size, len(mappings))
		batches = append(batches, mappings[start:end])
	}

	return batches
}

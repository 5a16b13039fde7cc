package model

// MoveMapping pairs a file's current location with its destination.
type MoveMapping struct {
	Source      Path `yaml:"source"`
	Destination Path `yaml:"destination"`
}

// DirectoryTarget is a destination directory derived from a sweep root entry.
type DirectoryTarget struct {
	SourceRoot  Path
	Destination Path
}

// MovePlan is the full set of mappings computed once per run. Every strategy
// and the dry-run reporter consume the same plan.
type MovePlan struct {
	WorkingDir             WorkingDirectory
	Destination            Path
	DestinationIsDirectory bool
	Mappings               []MoveMapping
	Directories            []DirectoryTarget
	SweepRoots             []Path
}

// Seeds returns the source paths of every mapping, in plan order.
func (p MovePlan) Seeds() []Path {
	seeds := make([]Path, 0, len(p.Mappings))
	for _, mapping := range p.Mappings {
		seeds = append(seeds, mapping.Source)
	}

	return seeds
}

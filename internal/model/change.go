package model

// FileChange is a file written when a scope is persisted.
type FileChange struct {
	Path      Path
	MovedFrom Path
	Before    []byte
	After     []byte
}

package model

// SourceTree represents an extracted or staged source checkout on disk
type SourceTree struct {
	Dir   string   // Root directory of the tree
	Files []string // Paths of the extracted files, relative to Dir
	Size  int64    // Total size in bytes
}

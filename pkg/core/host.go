package core

// Flags classifies a host object. Exactly which flags are set decides the
// role a plugin sees; the flags belong to the host and plugins only read them.
type Flags struct {
	IsApp        bool
	IsViews      bool
	IsCollection bool
	IsList       bool
	IsItem       bool
	IsView       bool
}

// IsLeaf reports whether the host is a single item or view rather than
// something holding other items.
func (f Flags) IsLeaf() bool {
	return f.IsItem || f.IsView
}

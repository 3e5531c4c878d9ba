package domain

// NoName marks a Mapping without a names entry.
const NoName = -1

// Mapping relates one generated position to one original position.
// Lines and columns are zero-based.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int
	OriginalColumn  int
	// NameIndex indexes into the names table, or is NoName.
	NameIndex int
}

// HasName reports whether the mapping carries a name index.
func (m Mapping) HasName() bool {
	return m.NameIndex >= 0
}

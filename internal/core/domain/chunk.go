package domain

// Chunk is a subset of modules emitted as a separately loadable file.
type Chunk struct {
	// Name is unique within a build, e.g. "chunk_3f2a9c0d1e4b5a6f".
	Name string
	// Members are the modules carried by the chunk, in assembly order.
	Members []ModuleID
	// Path is the chunk file location relative to the output directory,
	// always with forward slashes.
	Path string
	// Bucket is the kind folder the chunk lives in: "css", "html" or "js".
	Bucket string
	// Content is the assembled chunk text.
	Content string
}

// ManifestLine formats the chunk as a manifest entry.
func (c *Chunk) ManifestLine() string {
	return c.Name + ": " + c.Path
}
